package distribution

// Operation is the kind of request carried in a batch
type Operation int

const (
	OpCopyFile Operation = iota
	OpCreateFolder
	OpInsertPermission
)

func (o Operation) String() string {
	switch o {
	case OpCopyFile:
		return "copy"
	case OpCreateFolder:
		return "create-folder"
	case OpInsertPermission:
		return "insert-permission"
	default:
		return "unknown"
	}
}

// BatchRequest is one operation in a batch. Token correlates it with its result.
type BatchRequest struct {
	Token      string
	Op         Operation
	SourceID   string
	Name       string
	ParentID   string
	Permission PermissionRequest
}

// BatchResult is the outcome of one request. Results arrive in any order.
type BatchResult struct {
	Token  string
	FileID string
	Name   string
	Err    error
}

// Failed reports whether the request failed
func (r BatchResult) Failed() bool {
	return r.Err != nil
}

// Batch collects requests for one execution. Build it, execute it once, discard it.
type Batch struct {
	requests []BatchRequest
	tokens   map[string]struct{}
}

// NewBatch returns an empty batch
func NewBatch() *Batch {
	return &Batch{tokens: make(map[string]struct{})}
}

// CopyFile adds a copy of sourceID named name into parentID
func (b *Batch) CopyFile(token, sourceID, name, parentID string) error {
	return b.add(BatchRequest{Token: token, Op: OpCopyFile, SourceID: sourceID, Name: name, ParentID: parentID})
}

// CreateFolder adds a folder named name inside parentID
func (b *Batch) CreateFolder(token, name, parentID string) error {
	return b.add(BatchRequest{Token: token, Op: OpCreateFolder, Name: name, ParentID: parentID})
}

// InsertPermission adds a permission grant
func (b *Batch) InsertPermission(token string, req PermissionRequest) error {
	return b.add(BatchRequest{Token: token, Op: OpInsertPermission, Permission: req})
}

func (b *Batch) add(req BatchRequest) error {
	if req.Token == "" {
		return &CorrelationError{Key: req.Name, Reason: "request has no correlation key"}
	}
	if _, dup := b.tokens[req.Token]; dup {
		return &CorrelationError{Key: req.Token, Reason: "duplicate key in batch"}
	}
	b.tokens[req.Token] = struct{}{}
	b.requests = append(b.requests, req)
	return nil
}

// Requests returns the requests in submission order
func (b *Batch) Requests() []BatchRequest {
	out := make([]BatchRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Tokens returns the correlation keys in submission order
func (b *Batch) Tokens() []string {
	out := make([]string, len(b.requests))
	for i, r := range b.requests {
		out[i] = r.Token
	}
	return out
}

// Len returns the number of requests
func (b *Batch) Len() int {
	return len(b.requests)
}
