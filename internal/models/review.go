// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus represents the moderation state of a customer review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review is a customer testimonial submitted through the public site.
// Reviews start as pending and are published only after moderation.
type Review struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Rating      int          `json:"rating"`
	Comment     string       `json:"comment"`
	Status      ReviewStatus `json:"status"`
	ModeratedAt *time.Time   `json:"moderated_at,omitempty"`
	ModeratedBy *uuid.UUID   `json:"moderated_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CanTransitionTo reports whether the review may move to the target status.
// Moderation is one-way: once approved or rejected a review never changes
// status again.
func (r *Review) CanTransitionTo(target ReviewStatus) bool {
	if r.Status != ReviewStatusPending {
		return false
	}
	return target == ReviewStatusApproved || target == ReviewStatusRejected
}
