//go:build integration

package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

// fakeDriveService stands in for the Drive API behind the real drive client
type fakeDriveService struct {
	mu          sync.Mutex
	files        map[string]*drive.File
	permissions  map[string][]*drive.Permission
	failCopyFor  map[string]bool // by copy name suffix, e.g. "_102"
	failShareTo  map[string]bool // by email
	stallCopyFor map[string]bool // copies that never finish, by name suffix
	expired      bool
	nextID       int
}

func newFakeDriveService() *fakeDriveService {
	return &fakeDriveService{
		files:        make(map[string]*drive.File),
		permissions:  make(map[string][]*drive.Permission),
		failCopyFor:  make(map[string]bool),
		failShareTo:  make(map[string]bool),
		stallCopyFor: make(map[string]bool),
	}
}

func (f *fakeDriveService) add(file *drive.File) *drive.File {
	f.nextID++
	file.Id = fmt.Sprintf("f%d", f.nextID)
	f.files[file.Id] = file
	return file
}

func (f *fakeDriveService) addFolder(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(&drive.File{Name: name, MimeType: distribution.MimeTypeFolder}).Id
}

func (f *fakeDriveService) GetFile(_ context.Context, fileID, _ string) (*drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok {
		return nil, &googleapi.Error{Code: 404, Message: "File not found: " + fileID}
	}
	return file, nil
}

func (f *fakeDriveService) ListFiles(_ context.Context, query, _, _ string) ([]*drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*drive.File
	for _, file := range f.files {
		if file.Trashed || !strings.Contains(query, "'"+file.Name+"'") {
			continue
		}
		for _, p := range file.Parents {
			if strings.Contains(query, "'"+p+"' in parents") {
				out = append(out, file)
			}
		}
	}
	return out, nil
}

func (f *fakeDriveService) CreateFile(_ context.Context, file *drive.File, _ string) (*drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired {
		return nil, &googleapi.Error{Code: 401, Message: "Invalid Credentials"}
	}
	return f.add(&drive.File{Name: file.Name, MimeType: file.MimeType, Parents: file.Parents}), nil
}

func (f *fakeDriveService) CopyFile(ctx context.Context, sourceID string, file *drive.File, _ string) (*drive.File, error) {
	if f.stalls(file.Name) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired {
		return nil, &googleapi.Error{Code: 401, Message: "Invalid Credentials"}
	}
	src, ok := f.files[sourceID]
	if !ok {
		return nil, &googleapi.Error{Code: 404, Message: "File not found: " + sourceID}
	}
	for suffix := range f.failCopyFor {
		if strings.HasSuffix(file.Name, suffix) {
			return nil, &googleapi.Error{Code: 403, Message: "The user's Drive storage quota has been exceeded."}
		}
	}
	return f.add(&drive.File{Name: file.Name, MimeType: src.MimeType, Parents: file.Parents}), nil
}

func (f *fakeDriveService) stalls(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for suffix := range f.stallCopyFor {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (f *fakeDriveService) CreatePermission(_ context.Context, fileID string, p *drive.Permission, _ bool, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failShareTo[p.EmailAddress] {
		return &googleapi.Error{Code: 400, Message: "Invalid sharing request"}
	}
	f.permissions[fileID] = append(f.permissions[fileID], p)
	return nil
}

func (f *fakeDriveService) TrashFile(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok {
		return &googleapi.Error{Code: 404, Message: "File not found: " + fileID}
	}
	file.Trashed = true
	return nil
}

// roleOf returns the role granted to email on the file whose name ends in suffix
func (f *fakeDriveService) roleOf(suffix, email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, file := range f.files {
		if file.MimeType == distribution.MimeTypeFolder || !strings.HasSuffix(file.Name, suffix) {
			continue
		}
		for _, p := range f.permissions[id] {
			if p.EmailAddress == email {
				return p.Role
			}
		}
	}
	return ""
}

func (f *fakeDriveService) countCopies(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, file := range f.files {
		if strings.HasPrefix(file.Name, title+"_") && file.MimeType != distribution.MimeTypeFolder && !file.Trashed {
			n++
		}
	}
	return n
}

// memoryRoster is a course roster held in memory
type memoryRoster struct {
	course    roster.Course
	students  []roster.User
	teachers  []roster.User
	groups    map[int64]roster.Group
	members   map[int64][]roster.User
	groupings map[int64]roster.Grouping
	grouped   map[int64][]roster.User
}

func newMemoryRoster() *memoryRoster {
	return &memoryRoster{
		course:    roster.Course{ID: 1, ShortName: "BIO101", FullName: "Biology 101"},
		groups:    make(map[int64]roster.Group),
		members:   make(map[int64][]roster.User),
		groupings: make(map[int64]roster.Grouping),
		grouped:   make(map[int64][]roster.User),
	}
}

func (r *memoryRoster) GetCourse(_ context.Context, courseID int64) (*roster.Course, error) {
	if courseID != r.course.ID {
		return nil, roster.ErrCourseNotFound
	}
	c := r.course
	return &c, nil
}

func (r *memoryRoster) ListEnrolledStudents(context.Context, int64) ([]roster.User, error) {
	return append([]roster.User(nil), r.students...), nil
}

func (r *memoryRoster) ListTeachers(context.Context, int64) ([]roster.User, error) {
	return append([]roster.User(nil), r.teachers...), nil
}

func (r *memoryRoster) GetGroup(_ context.Context, id int64) (*roster.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, roster.ErrGroupNotFound
	}
	return &g, nil
}

func (r *memoryRoster) GetGrouping(_ context.Context, id int64) (*roster.Grouping, error) {
	g, ok := r.groupings[id]
	if !ok {
		return nil, roster.ErrGroupNotFound
	}
	return &g, nil
}

func (r *memoryRoster) ListGroupMembers(_ context.Context, id int64) ([]roster.User, error) {
	return append([]roster.User(nil), r.members[id]...), nil
}

func (r *memoryRoster) ListGroupingMembers(_ context.Context, id int64) ([]roster.User, error) {
	return append([]roster.User(nil), r.grouped[id]...), nil
}

// memoryRepository keeps activities and run records in memory with the
// same conflict rules as the Postgres adapter
type memoryRepository struct {
	mu         sync.Mutex
	activities map[int64]*distribution.Activity
	folders    []distribution.FolderRecord
	files      []distribution.FileRecord
	tasks      []distribution.WorkTask
	nextID     int64
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{activities: make(map[int64]*distribution.Activity)}
}

func (m *memoryRepository) CreateActivity(_ context.Context, a *distribution.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	stored := *a
	m.activities[a.ID] = &stored
	return nil
}

func (m *memoryRepository) GetActivity(_ context.Context, id int64) (*distribution.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", distribution.ErrActivityNotFound, id)
	}
	out := *a
	return &out, nil
}

func (m *memoryRepository) SaveRun(_ context.Context, run distribution.RunRecords) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.activities[run.ActivityID]
	if !ok {
		return distribution.ErrActivityNotFound
	}
	if run.MarkShared && a.Sharing {
		return distribution.ErrAlreadyDistributed
	}

	for _, f := range run.Folders {
		if !m.hasFolder(f) {
			m.folders = append(m.folders, f)
		}
	}
	for _, f := range run.Files {
		if !m.hasFile(f) {
			m.files = append(m.files, f)
		}
	}
	for _, t := range run.Tasks {
		m.upsertTask(t)
	}
	if run.MarkShared {
		a.Sharing = true
	}
	return nil
}

func (m *memoryRepository) hasFolder(f distribution.FolderRecord) bool {
	for _, e := range m.folders {
		if e.ActivityID == f.ActivityID && e.Kind == f.Kind && e.GroupID == f.GroupID {
			return true
		}
	}
	return false
}

func (m *memoryRepository) hasFile(f distribution.FileRecord) bool {
	for _, e := range m.files {
		if e.ActivityID == f.ActivityID && e.UserID == f.UserID && e.GroupID == f.GroupID && e.GroupingID == f.GroupingID {
			return true
		}
	}
	return false
}

func (m *memoryRepository) upsertTask(t distribution.WorkTask) {
	for i, e := range m.tasks {
		if e.ActivityID == t.ActivityID && e.UserID == t.UserID && e.GroupID == t.GroupID && e.GroupingID == t.GroupingID {
			m.tasks[i].Status = t.Status
			return
		}
	}
	m.tasks = append(m.tasks, t)
}

func (m *memoryRepository) ListFolderRecords(_ context.Context, id int64) ([]distribution.FolderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []distribution.FolderRecord
	for _, f := range m.folders {
		if f.ActivityID == id {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryRepository) ListFileRecords(_ context.Context, id int64) ([]distribution.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []distribution.FileRecord
	for _, f := range m.files {
		if f.ActivityID == id {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryRepository) ListWorkTasks(_ context.Context, id int64) ([]distribution.WorkTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []distribution.WorkTask
	for _, t := range m.tasks {
		if t.ActivityID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRepository) DeleteActivity(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[id]; !ok {
		return distribution.ErrActivityNotFound
	}
	delete(m.activities, id)
	return nil
}
