package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openclear/clearing-backend/internal/domain/clearing"
)

// ErrNoOpenItems is returned by an Extractor when none of the selected
// accounts carries any open item. It is an outcome, not a failure: the
// entity is skipped in every later phase.
var ErrNoOpenItems = errors.New("no open items on any selected account")

// Extractor pulls the raw open-item export of one entity from the external
// ledger system.
type Extractor interface {
	Export(ctx context.Context, entity string, accounts []string) (string, error)
}

// PostRequest carries one account/currency clearing group to the posting
// collaborator.
type PostRequest struct {
	Entity       string
	Account      string
	Currency     string
	ClearingDate time.Time
	Period       int
	Group        clearing.Group
}

// Poster submits one clearing group to the external ledger system and
// returns the posting document number.
//
// Failures come back either as a *PermissionError (caller lacks posting
// authorization on the account) or as a generic error. Both are recorded on
// the originating rows and never abort the run.
type Poster interface {
	ClearItems(ctx context.Context, req PostRequest) (string, error)
}

// PermissionError reports a posting rejected for missing authorization.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("no posting authorization: %s", e.Msg)
}

// Notifier delivers a composed notification to its recipients.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
