package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"drive-distribution/domain/distribution"
)

// ExecuteBatch implements distribution.DriveClient.
// Requests run concurrently, bounded by the client's concurrency limit and
// batch timeout. Results are returned in completion order, each carrying the
// token of its request. Requests still pending when the batch deadline passes
// fail individually with the deadline error; finished results are kept.
// A failure that is not specific to one request, such as an expired
// credential or a cancelled caller, aborts the batch with an error wrapping
// distribution.ErrTransport.
func (c *Client) ExecuteBatch(ctx context.Context, batch *distribution.Batch) ([]distribution.BatchResult, error) {
	reqs := batch.Requests()
	if len(reqs) == 0 {
		return nil, nil
	}

	batchCtx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(c.maxConcurrency)

	var (
		mu      sync.Mutex
		results = make([]distribution.BatchResult, 0, len(reqs))
	)

	for _, req := range reqs {
		g.Go(func() error {
			res, err := c.execute(gctx, req)
			if err != nil {
				if isTransportError(ctx, batchCtx, err) {
					return fmt.Errorf("%w: %s %s: %w", distribution.ErrTransport, req.Op, req.Token, err)
				}
				res.Err = err
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) execute(ctx context.Context, req distribution.BatchRequest) (distribution.BatchResult, error) {
	res := distribution.BatchResult{Token: req.Token}

	var (
		f   *drive.File
		err error
	)
	switch req.Op {
	case distribution.OpCopyFile:
		f, err = c.driveService.CopyFile(ctx, req.SourceID, &drive.File{Name: req.Name, Parents: parents(req.ParentID)}, fileFields)
	case distribution.OpCreateFolder:
		f, err = c.driveService.CreateFile(ctx, folderMetadata(req.Name, req.ParentID), fileFields)
	case distribution.OpInsertPermission:
		p := req.Permission
		err = c.driveService.CreatePermission(ctx, p.FileID, toPermission(p), p.Notify, p.Message)
		res.FileID = p.FileID
		return res, err
	default:
		return res, fmt.Errorf("unsupported batch operation %s", req.Op)
	}
	if err != nil {
		return res, err
	}

	res.FileID = f.Id
	res.Name = f.Name
	return res, nil
}

// isTransportError reports whether err means the batch as a whole cannot proceed.
// A request cut off by the batch deadline is not: only that request fails.
func isTransportError(parent, batchCtx context.Context, err error) bool {
	if parent.Err() != nil {
		return true
	}
	if batchCtx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
