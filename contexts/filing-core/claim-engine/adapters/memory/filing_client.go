package memory

import (
	"context"
	"fmt"
	"sync"

	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	"recoup/contexts/filing-core/claim-engine/ports"
)

// FilingClient is a scripted marketplace double. Submissions succeed unless
// FailSubmissions is set; case statuses come from the scripted map.
type FilingClient struct {
	mu sync.Mutex

	FailSubmissions bool
	statuses        map[string]ports.CaseStatus
	submitted       []ports.ClaimDescriptor
	nextCase        int
}

func NewFilingClient() *FilingClient {
	return &FilingClient{statuses: make(map[string]ports.CaseStatus)}
}

func (c *FilingClient) ScriptStatus(externalSubmissionID string, status ports.CaseStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[externalSubmissionID] = status
}

func (c *FilingClient) Submitted() []ports.ClaimDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.ClaimDescriptor(nil), c.submitted...)
}

func (c *FilingClient) Submit(_ context.Context, descriptor ports.ClaimDescriptor) (ports.FilingReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSubmissions {
		return ports.FilingReceipt{}, domainerrors.ErrFilingClientFailed
	}
	c.nextCase++
	c.submitted = append(c.submitted, descriptor)
	return ports.FilingReceipt{
		ExternalCaseID:       fmt.Sprintf("case-%d", c.nextCase),
		ExternalSubmissionID: fmt.Sprintf("ext-sub-%d", c.nextCase),
	}, nil
}

func (c *FilingClient) GetStatus(_ context.Context, externalSubmissionID string) (ports.CaseStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, exists := c.statuses[externalSubmissionID]
	if !exists {
		return ports.CaseStatus{}, domainerrors.ErrSubmissionNotFound
	}
	return status, nil
}
