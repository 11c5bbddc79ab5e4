// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"sync"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain/models"
)

// Registry holds the signature validator of each webhook source
type Registry struct {
	validators map[models.WebhookSource]*SignatureValidator
	mu         sync.RWMutex
}

// NewRegistry creates a new webhook registry
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[models.WebhookSource]*SignatureValidator),
	}
}

// GetValidator returns the validator for the source, nil when signatures are not enforced
func (r *Registry) GetValidator(source models.WebhookSource) domain.WebhookValidator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	validator, ok := r.validators[source]
	if !ok {
		return nil
	}
	return validator
}

// RegisterValidator enforces signatures on a source. A nil validator disables enforcement.
func (r *Registry) RegisterValidator(source models.WebhookSource, validator *SignatureValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if validator == nil {
		delete(r.validators, source)
		return
	}
	r.validators[source] = validator
}
