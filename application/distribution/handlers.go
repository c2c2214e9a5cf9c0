package distribution

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"drive-distribution/domain/distribution"
)

// copyPerUser gives every student a copy inside the activity folder
func (e *Engine) copyPerUser(ctx context.Context, r *run) error {
	return e.createAndShare(ctx, r, indexes(r.progress), r.activity.ParentFolderID)
}

// copyPerMember gives every member a copy inside their group or grouping folder.
// Each container is one batch so member keys stay unique.
func (e *Engine) copyPerMember(ctx context.Context, r *run) error {
	if err := e.buildFolders(ctx, r); err != nil {
		return err
	}

	byContainer := make(map[string][]int)
	for i, p := range r.progress {
		key := p.Target.ContainerKey()
		byContainer[key] = append(byContainer[key], i)
	}

	for _, c := range r.set.Containers {
		idxs := byContainer[c.Key()]
		if len(idxs) == 0 {
			continue
		}
		folderID, ok := r.folders.IDs[c.Key()]
		if !ok {
			e.failAll(r, idxs, r.folders.Failures[c.Key()])
			continue
		}
		fmt.Fprintf(e.output, "      %s %q: %d members\n", c.Kind, c.Name, len(idxs))
		if err := e.createAndShare(ctx, r, idxs, folderID); err != nil {
			return err
		}
	}
	return nil
}

// copyPerContainer gives every group or grouping one copy inside its folder,
// shared with all of its members
func (e *Engine) copyPerContainer(ctx context.Context, r *run) error {
	if err := e.buildFolders(ctx, r); err != nil {
		return err
	}

	var ready []int
	for i, p := range r.progress {
		if _, ok := r.folders.IDs[p.Target.Key()]; !ok {
			e.failAll(r, []int{i}, r.folders.Failures[p.Target.Key()])
			continue
		}
		ready = append(ready, i)
	}
	if len(ready) == 0 {
		return nil
	}

	return e.createAndShareIn(ctx, r, ready, func(t distribution.Target) string {
		return r.folders.IDs[t.Key()]
	})
}

// shareMaster shares the master itself with every student
func (e *Engine) shareMaster(ctx context.Context, r *run) error {
	for _, p := range r.progress {
		if err := p.Advance(distribution.StateCreating, nil); err != nil {
			return err
		}
		p.FileID = r.master.ID
		p.FileName = r.master.Name
		p.URL = r.fileType.Link(r.master.ID)
		if err := p.Advance(distribution.StateCreated, nil); err != nil {
			return err
		}
	}
	return e.share(ctx, r, indexes(r.progress))
}

func (e *Engine) buildFolders(ctx context.Context, r *run) error {
	folders, err := e.folders.Build(ctx, r.activity.ID, r.activity.ParentFolderID, r.set.Containers, r.staff)
	if err != nil {
		return fmt.Errorf("failed to build folders: %w", err)
	}
	r.folders = folders
	return nil
}

func (e *Engine) createAndShare(ctx context.Context, r *run, idxs []int, parentID string) error {
	return e.createAndShareIn(ctx, r, idxs, func(distribution.Target) string { return parentID })
}

// createAndShareIn copies the master once per target, then shares every copy
// that was created. Share is only attempted after create succeeded.
func (e *Engine) createAndShareIn(ctx context.Context, r *run, idxs []int, parentOf func(distribution.Target) string) error {
	batch := distribution.NewBatch()
	var submitted []int

	for _, i := range idxs {
		p := r.progress[i]
		if p.State != distribution.StatePending {
			continue
		}
		name := distribution.CopyName(r.master.Name, p.Target)
		var err error
		if r.master.IsFolder() {
			err = batch.CreateFolder(p.Target.Key(), name, parentOf(p.Target))
		} else {
			err = batch.CopyFile(p.Target.Key(), r.master.ID, name, parentOf(p.Target))
		}
		if err != nil {
			return err
		}
		if err := p.Advance(distribution.StateCreating, nil); err != nil {
			return err
		}
		p.FileName = name
		submitted = append(submitted, i)
	}
	if batch.Len() == 0 {
		return nil
	}

	results, err := runBatch(ctx, e.driveClient, batch, "Create")
	if err != nil {
		return err
	}

	for j, res := range results {
		p := r.progress[submitted[j]]
		if res.Failed() {
			if err := p.Advance(distribution.StateCreateFailed, res.Err); err != nil {
				return err
			}
			e.logger.Warn(ctx, "create failed", "key", p.Target.Key(), "err", res.Err)
			continue
		}
		p.FileID = res.FileID
		if res.Name != "" {
			p.FileName = res.Name
		}
		p.URL = r.fileType.Link(res.FileID)
		if err := p.Advance(distribution.StateCreated, nil); err != nil {
			return err
		}
	}
	fmt.Fprintf(e.output, "      Created %d of %d copies\n", len(results)-countFailed(results), len(results))

	return e.share(ctx, r, submitted)
}

// share grants every recipient of each created target access to its file.
// A container target fails if any of its members could not be granted access.
func (e *Engine) share(ctx context.Context, r *run, idxs []int) error {
	batch := distribution.NewBatch()
	owner := make(map[string]int)
	var sharing []int

	for _, i := range idxs {
		p := r.progress[i]
		if p.State != distribution.StateCreated {
			continue
		}
		if err := p.Advance(distribution.StateSharing, nil); err != nil {
			return err
		}
		sharing = append(sharing, i)

		for _, u := range p.Target.Recipients() {
			token := p.Target.Key()
			if p.Target.Kind != distribution.KindUser {
				token += "/" + strconv.FormatInt(u.ID, 10)
			}
			err := batch.InsertPermission(token, distribution.PermissionRequest{
				FileID:  p.FileID,
				Email:   u.Email,
				Grant:   r.grant,
				Notify:  true,
				Message: e.opts.NotificationMessage,
			})
			if err != nil {
				return err
			}
			owner[token] = i
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	results, err := runBatch(ctx, e.driveClient, batch, "Share")
	if err != nil {
		return err
	}

	failures := make(map[int]error)
	for _, res := range results {
		if !res.Failed() {
			continue
		}
		i := owner[res.Token]
		if _, seen := failures[i]; !seen {
			failures[i] = fmt.Errorf("failed to share: %w", res.Err)
		}
		e.logger.Warn(ctx, "share failed", "key", res.Token, "err", res.Err)
	}

	for _, i := range sharing {
		p := r.progress[i]
		next := distribution.StateShared
		if failures[i] != nil {
			next = distribution.StateShareFailed
		}
		if err := p.Advance(next, failures[i]); err != nil {
			return err
		}
	}
	fmt.Fprintf(e.output, "      Shared %d of %d files\n", len(sharing)-len(failures), len(sharing))

	return nil
}

func (e *Engine) failAll(r *run, idxs []int, err error) {
	if err == nil {
		err = errors.New("no folder for target")
	}
	for _, i := range idxs {
		r.progress[i].Fail(err)
	}
}

func indexes(progress []*distribution.Progress) []int {
	out := make([]int, len(progress))
	for i := range progress {
		out[i] = i
	}
	return out
}
