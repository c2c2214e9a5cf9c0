package distribution

import (
	"errors"
	"fmt"
)

// Correlation is either Correlated or Uncorrelatable
type Correlation interface {
	correlation()
}

// Correlated is a result attributed to a key
type Correlated struct {
	Key    string
	Result BatchResult
}

// Uncorrelatable is a result that carries neither a token nor a usable name
type Uncorrelatable struct {
	Raw BatchResult
}

func (Correlated) correlation()     {}
func (Uncorrelatable) correlation() {}

// Correlate attributes a result by its token, falling back to the trailing
// segment of the returned name.
func Correlate(r BatchResult) Correlation {
	if r.Token != "" {
		return Correlated{Key: r.Token, Result: r}
	}
	if key, ok := TrailingKey(r.Name); ok {
		return Correlated{Key: key, Result: r}
	}
	return Uncorrelatable{Raw: r}
}

// Reconcile aligns unordered batch results with keys in submission order.
// Keys without a result come back as failures wrapping ErrNoResult.
func Reconcile(keys []string, results []BatchResult) ([]BatchResult, error) {
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, dup := index[k]; dup {
			return nil, &CorrelationError{Key: k, Reason: "two targets share the same key"}
		}
		index[k] = i
	}

	out := make([]BatchResult, len(keys))
	filled := make([]bool, len(keys))
	var unattributed []error

	for _, r := range results {
		switch c := Correlate(r).(type) {
		case Correlated:
			pos, ok := index[c.Key]
			if !ok {
				return nil, &CorrelationError{Key: c.Key, Reason: "result does not match any target"}
			}
			if filled[pos] {
				return nil, &CorrelationError{Key: c.Key, Reason: "more than one result for target"}
			}
			c.Result.Token = c.Key
			out[pos] = c.Result
			filled[pos] = true
		case Uncorrelatable:
			if !c.Raw.Failed() {
				return nil, &CorrelationError{Key: c.Raw.Name, Reason: "successful result cannot be attributed"}
			}
			unattributed = append(unattributed, c.Raw.Err)
		}
	}

	missing := 0
	for _, f := range filled {
		if !f {
			missing++
		}
	}

	for i, k := range keys {
		if filled[i] {
			continue
		}
		err := ErrNoResult
		switch {
		case missing == 1 && len(unattributed) == 1:
			err = fmt.Errorf("%w: %w", ErrNoResult, unattributed[0])
		case len(unattributed) > 0:
			err = fmt.Errorf("%w: %w", ErrNoResult, errors.Join(unattributed...))
		}
		out[i] = BatchResult{Token: k, Err: err}
	}

	return out, nil
}
