package distribution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

// --- Mock implementations for testing ---

// mockDriveClient implements distribution.DriveClient for testing.
// ExecuteBatch answers in reverse submission order.
type mockDriveClient struct {
	mu sync.Mutex

	files       map[string]*distribution.FileInfo
	failCreate  map[string]error // keyed by request token
	failShare   map[string]error // keyed by recipient email
	batchErr    error
	batchDelay  time.Duration
	nameOnly    bool   // drop tokens from create results
	strayResult string // extra result with this token

	batches     [][]distribution.BatchRequest
	permissions []distribution.PermissionRequest
	created     []distribution.BatchRequest
	deleted     []string
	calls       int
	nextID      int
}

func newMockDriveClient() *mockDriveClient {
	return &mockDriveClient{
		files: map[string]*distribution.FileInfo{
			"master-doc": {ID: "master-doc", Name: "Homework", MimeType: distribution.TypeDocument.MimeType()},
			"master-dir": {ID: "master-dir", Name: "Project", MimeType: distribution.MimeTypeFolder},
		},
		failCreate: make(map[string]error),
		failShare:  make(map[string]error),
	}
}

func (m *mockDriveClient) id() string {
	m.nextID++
	return fmt.Sprintf("file-%d", m.nextID)
}

func (m *mockDriveClient) GetFile(ctx context.Context, fileID string) (*distribution.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	f, ok := m.files[fileID]
	if !ok {
		return nil, fmt.Errorf("googleapi: Error 404: File not found: %s", fileID)
	}
	return f, nil
}

func (m *mockDriveClient) FindFolder(ctx context.Context, name, parentID string) (*distribution.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, f := range m.files {
		if f.Name == name && f.IsFolder() && len(f.Parents) > 0 && f.Parents[0] == parentID {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockDriveClient) CreateFolder(ctx context.Context, name, parentID string) (*distribution.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	f := &distribution.FileInfo{ID: m.id(), Name: name, MimeType: distribution.MimeTypeFolder, Parents: []string{parentID}}
	m.files[f.ID] = f
	return f, nil
}

func (m *mockDriveClient) CreateFile(ctx context.Context, name string, fileType distribution.FileType, parentID string) (*distribution.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	f := &distribution.FileInfo{ID: m.id(), Name: name, MimeType: fileType.MimeType(), Parents: []string{parentID}}
	m.files[f.ID] = f
	return f, nil
}

func (m *mockDriveClient) CopyFile(ctx context.Context, sourceID, name, parentID string) (*distribution.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	f := &distribution.FileInfo{ID: m.id(), Name: name, Parents: []string{parentID}}
	m.files[f.ID] = f
	return f, nil
}

func (m *mockDriveClient) InsertPermission(ctx context.Context, req distribution.PermissionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.failShare[req.Email]; err != nil {
		return err
	}
	m.permissions = append(m.permissions, req)
	return nil
}

func (m *mockDriveClient) DeleteFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.failCreate[fileID]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, fileID)
	return nil
}

func (m *mockDriveClient) ExecuteBatch(ctx context.Context, batch *distribution.Batch) ([]distribution.BatchResult, error) {
	if m.batchDelay > 0 {
		select {
		case <-time.After(m.batchDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", distribution.ErrTransport, ctx.Err())
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}

	reqs := batch.Requests()
	m.batches = append(m.batches, reqs)

	var results []distribution.BatchResult
	for i := len(reqs) - 1; i >= 0; i-- {
		req := reqs[i]
		res := distribution.BatchResult{Token: req.Token}
		switch req.Op {
		case distribution.OpInsertPermission:
			if err := m.failShare[req.Permission.Email]; err != nil {
				res.Err = err
			} else {
				m.permissions = append(m.permissions, req.Permission)
			}
		default:
			if err := m.failCreate[req.Token]; err != nil {
				res.Err = err
				break
			}
			m.created = append(m.created, req)
			res.FileID = m.id()
			res.Name = req.Name
			if m.nameOnly {
				res.Token = ""
			}
		}
		results = append(results, res)
	}

	if m.strayResult != "" {
		results = append(results, distribution.BatchResult{Token: m.strayResult, FileID: "stray"})
	}
	return results, nil
}

// mockRoster implements roster.Roster for testing
type mockRoster struct {
	students        []roster.User
	teachers        []roster.User
	groups          map[int64]roster.Group
	groupMembers    map[int64][]roster.User
	groupings       map[int64]roster.Grouping
	groupingMembers map[int64][]roster.User
}

func (m *mockRoster) GetCourse(ctx context.Context, courseID int64) (*roster.Course, error) {
	return &roster.Course{ID: courseID, ShortName: "MATH7", FullName: "Math Year 7"}, nil
}

func (m *mockRoster) ListEnrolledStudents(ctx context.Context, courseID int64) ([]roster.User, error) {
	return m.students, nil
}

func (m *mockRoster) ListTeachers(ctx context.Context, courseID int64) ([]roster.User, error) {
	return m.teachers, nil
}

func (m *mockRoster) GetGroup(ctx context.Context, groupID int64) (*roster.Group, error) {
	g, ok := m.groups[groupID]
	if !ok {
		return nil, roster.ErrGroupNotFound
	}
	return &g, nil
}

func (m *mockRoster) GetGrouping(ctx context.Context, groupingID int64) (*roster.Grouping, error) {
	g, ok := m.groupings[groupingID]
	if !ok {
		return nil, roster.ErrGroupNotFound
	}
	return &g, nil
}

func (m *mockRoster) ListGroupMembers(ctx context.Context, groupID int64) ([]roster.User, error) {
	return append([]roster.User(nil), m.groupMembers[groupID]...), nil
}

func (m *mockRoster) ListGroupingMembers(ctx context.Context, groupingID int64) ([]roster.User, error) {
	return append([]roster.User(nil), m.groupingMembers[groupingID]...), nil
}

// mockRepository implements distribution.Repository for testing
type mockRepository struct {
	activities map[int64]*distribution.Activity
	runs       []distribution.RunRecords
	files      []distribution.FileRecord
	folders    []distribution.FolderRecord
	deleted    []int64
	shouldFail bool
	failError  error
	nextID     int64
}

func newMockRepository(activities ...*distribution.Activity) *mockRepository {
	m := &mockRepository{activities: make(map[int64]*distribution.Activity)}
	for _, a := range activities {
		m.activities[a.ID] = a
	}
	return m
}

func (m *mockRepository) CreateActivity(ctx context.Context, a *distribution.Activity) error {
	if m.shouldFail {
		return m.failError
	}
	m.nextID++
	a.ID = m.nextID
	m.activities[a.ID] = a
	return nil
}

func (m *mockRepository) GetActivity(ctx context.Context, id int64) (*distribution.Activity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, distribution.ErrActivityNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepository) SaveRun(ctx context.Context, run distribution.RunRecords) error {
	if m.shouldFail {
		return m.failError
	}
	m.runs = append(m.runs, run)
	m.files = append(m.files, run.Files...)
	m.folders = append(m.folders, run.Folders...)
	if run.MarkShared {
		m.activities[run.ActivityID].Sharing = true
	}
	return nil
}

func (m *mockRepository) ListFolderRecords(ctx context.Context, activityID int64) ([]distribution.FolderRecord, error) {
	return m.folders, nil
}

func (m *mockRepository) ListFileRecords(ctx context.Context, activityID int64) ([]distribution.FileRecord, error) {
	return m.files, nil
}

func (m *mockRepository) ListWorkTasks(ctx context.Context, activityID int64) ([]distribution.WorkTask, error) {
	var tasks []distribution.WorkTask
	for _, r := range m.runs {
		tasks = append(tasks, r.Tasks...)
	}
	return tasks, nil
}

func (m *mockRepository) DeleteActivity(ctx context.Context, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	m.deleted = append(m.deleted, id)
	delete(m.activities, id)
	return nil
}

// mockLocker implements distribution.Locker for testing
type mockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
	extended int
	lost     bool // Extend reports the lock as taken over
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (distribution.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, distribution.ErrRunInProgress
	}
	m.held[key] = true
	return &mockLease{locker: m, key: key}, nil
}

func (m *mockLocker) extends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extended
}

type mockLease struct {
	locker *mockLocker
	key    string
}

func (l *mockLease) Extend(ctx context.Context, ttl time.Duration) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	if l.locker.lost {
		return distribution.ErrLockLost
	}
	l.locker.extended++
	return nil
}

func (l *mockLease) Release(ctx context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	delete(l.locker.held, l.key)
	l.locker.released++
	return nil
}
