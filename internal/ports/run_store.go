package ports

import "github.com/jrjhealey/Oread/internal/domain"

// RunStore persists comparison run records.
type RunStore interface {
	SaveRun(rec domain.RunRecord) (id string, err error)
}
