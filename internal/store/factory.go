package store

import (
	"feedloop.app/triage/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Feedback() FeedbackStore {
	return newFeedbackStore(s.q)
}

func (s *Stores) IssueDrafts() IssueDraftStore {
	return newIssueDraftStore(s.q)
}
