package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	featuremodel "feature-voting-backend/internal/domains/feature/model"
	featurerepo "feature-voting-backend/internal/domains/feature/repository"
	usermodel "feature-voting-backend/internal/domains/user/model"
	userrepo "feature-voting-backend/internal/domains/user/repository"
	votemodel "feature-voting-backend/internal/domains/vote/model"
	voterepo "feature-voting-backend/internal/domains/vote/repository"
	"feature-voting-backend/internal/infrastructure/database"
)

// MemStore is an in-memory store with the integrity rules of the SQL schema:
// unique username/email, unique (user, feature) vote, foreign keys with cascade.
// Each operation is atomic under one mutex.
type MemStore struct {
	mu sync.Mutex

	users    map[int64]*usermodel.User
	features map[int64]*featuremodel.Feature
	votes    map[int64]*votemodel.Vote
	pairs    map[pair]int64

	nextUser, nextFeature, nextVote int64

	// SkipAdvisoryCheck makes Cast rely on the unique constraint alone,
	// the path taken by the loser of a concurrent race.
	SkipAdvisoryCheck bool
}

type pair struct{ user, feature int64 }

func NewMemStore() *MemStore {
	return &MemStore{
		users:    map[int64]*usermodel.User{},
		features: map[int64]*featuremodel.Feature{},
		votes:    map[int64]*votemodel.Vote{},
		pairs:    map[pair]int64{},
	}
}

func (s *MemStore) Users() userrepo.Repository       { return memUsers{s} }
func (s *MemStore) Features() featurerepo.Repository { return memFeatures{s} }
func (s *MemStore) Ledger() voterepo.Ledger          { return memLedger{s} }

func violation(c database.Constraint, name string) error {
	return &database.ConstraintViolation{Constraint: c, Name: name, Err: fmt.Errorf("violates %s", name)}
}

// ========================================
// INSPECTION HELPERS
// ========================================

// VoteRows counts vote rows for a feature
func (s *MemStore) VoteRows(featureID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voteRowsLocked(featureID)
}

func (s *MemStore) voteRowsLocked(featureID int64) int {
	n := 0
	for _, v := range s.votes {
		if v.FeatureID == featureID {
			n++
		}
	}
	return n
}

// CheckInvariant verifies vote_count equals the vote rows of every feature
func (s *MemStore) CheckInvariant() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.features {
		if rows := s.voteRowsLocked(id); rows != f.VoteCount {
			return fmt.Errorf("feature %d: vote_count=%d rows=%d", id, f.VoteCount, rows)
		}
	}
	return nil
}

// SetVoteCount overwrites a counter without touching votes
func (s *MemStore) SetVoteCount(featureID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.features[featureID]; ok {
		f.VoteCount = n
	}
}

// ========================================
// USERS
// ========================================

type memUsers struct{ s *MemStore }

func (r memUsers) Create(_ context.Context, u *usermodel.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("insert user: %w", violation(database.UniqueUsername, "users_username_key"))
		}
		if existing.Email == u.Email {
			return fmt.Errorf("insert user: %w", violation(database.UniqueEmail, "users_email_key"))
		}
	}

	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (*usermodel.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, usermodel.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) List(_ context.Context, skip, limit int) ([]usermodel.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]usermodel.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, skip, limit), nil
}

func (r memUsers) Exists(_ context.Context, id int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return usermodel.ErrUserNotFound
	}

	for voteID, v := range s.votes {
		if v.UserID != id {
			continue
		}
		if f, ok := s.features[v.FeatureID]; ok && f.AuthorID != id && f.VoteCount > 0 {
			f.VoteCount--
		}
		s.dropVoteLocked(voteID)
	}
	for featureID, f := range s.features {
		if f.AuthorID == id {
			s.dropFeatureLocked(featureID)
		}
	}
	delete(s.users, id)
	return nil
}

// ========================================
// FEATURES
// ========================================

type memFeatures struct{ s *MemStore }

func (r memFeatures) Create(_ context.Context, f *featuremodel.Feature) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[f.AuthorID]; !ok {
		return fmt.Errorf("insert feature: %w", violation(database.ForeignKeyUser, "features_author_id_fkey"))
	}

	s.nextFeature++
	f.ID = s.nextFeature
	f.VoteCount = 0
	f.CreatedAt = time.Now().UTC()
	cp := *f
	s.features[f.ID] = &cp
	return nil
}

func (r memFeatures) FindByID(_ context.Context, id int64) (*featuremodel.Feature, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[id]
	if !ok {
		return nil, featuremodel.ErrFeatureNotFound
	}
	cp := *f
	return &cp, nil
}

func (r memFeatures) List(_ context.Context, offset, limit int) ([]featuremodel.Feature, int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]featuremodel.Feature, 0, len(s.features))
	for _, f := range s.features {
		all = append(all, *f)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].VoteCount != all[j].VoteCount {
			return all[i].VoteCount > all[j].VoteCount
		}
		return all[i].ID < all[j].ID
	})
	return window(all, offset, limit), len(all), nil
}

func (r memFeatures) Update(_ context.Context, id int64, req featuremodel.UpdateFeatureRequest) (*featuremodel.Feature, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[id]
	if !ok {
		return nil, featuremodel.ErrFeatureNotFound
	}
	if req.VoteCount != nil && *req.VoteCount < 0 {
		return nil, violation(database.CheckConstraint, "features_vote_count_check")
	}
	if req.Title != nil {
		f.Title = *req.Title
	}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.VoteCount != nil {
		f.VoteCount = *req.VoteCount
	}
	cp := *f
	return &cp, nil
}

func (r memFeatures) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.features[id]; !ok {
		return featuremodel.ErrFeatureNotFound
	}
	s.dropFeatureLocked(id)
	return nil
}

func (s *MemStore) dropFeatureLocked(id int64) {
	for voteID, v := range s.votes {
		if v.FeatureID == id {
			s.dropVoteLocked(voteID)
		}
	}
	delete(s.features, id)
}

func (s *MemStore) dropVoteLocked(id int64) {
	if v, ok := s.votes[id]; ok {
		delete(s.pairs, pair{v.UserID, v.FeatureID})
		delete(s.votes, id)
	}
}

// ========================================
// VOTE LEDGER
// ========================================

type memLedger struct{ s *MemStore }

func (r memLedger) Cast(_ context.Context, userID, featureID int64) (*votemodel.Result, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[featureID]
	if !ok {
		return nil, votemodel.ErrFeatureNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return nil, votemodel.ErrUserNotFound
	}
	if _, voted := s.pairs[pair{userID, featureID}]; voted {
		if !s.SkipAdvisoryCheck {
			return nil, votemodel.ErrAlreadyVoted
		}
		return nil, fmt.Errorf("insert vote: %w", violation(database.UniqueUserFeatureVote, "uq_votes_user_feature"))
	}

	s.nextVote++
	v := &votemodel.Vote{ID: s.nextVote, UserID: userID, FeatureID: featureID, CreatedAt: time.Now().UTC()}
	s.votes[v.ID] = v
	s.pairs[pair{userID, featureID}] = v.ID
	f.VoteCount++

	return &votemodel.Result{Vote: *v, VoteCount: f.VoteCount}, nil
}

func (r memLedger) Retract(_ context.Context, userID, featureID int64) (*votemodel.Result, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.features[featureID]; !ok {
		return nil, votemodel.ErrFeatureNotFound
	}
	voteID, ok := s.pairs[pair{userID, featureID}]
	if !ok {
		return nil, votemodel.ErrVoteNotFound
	}
	return s.retractLocked(voteID), nil
}

func (r memLedger) RetractByID(_ context.Context, userID, voteID int64) (*votemodel.Result, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.votes[voteID]
	if !ok || v.UserID != userID {
		return nil, votemodel.ErrVoteNotFound
	}
	return s.retractLocked(voteID), nil
}

func (s *MemStore) retractLocked(voteID int64) *votemodel.Result {
	v := *s.votes[voteID]
	s.dropVoteLocked(voteID)

	f := s.features[v.FeatureID]
	if f.VoteCount > 0 {
		f.VoteCount--
	}
	return &votemodel.Result{Vote: v, VoteCount: f.VoteCount}
}

func (r memLedger) Recount(_ context.Context, featureID int64) (*votemodel.Recount, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[featureID]
	if !ok {
		return nil, votemodel.ErrFeatureNotFound
	}
	previous := f.VoteCount
	f.VoteCount = s.voteRowsLocked(featureID)
	return &votemodel.Recount{FeatureID: featureID, Previous: previous, VoteCount: f.VoteCount}, nil
}

func (r memLedger) List(_ context.Context, skip, limit int) ([]votemodel.Vote, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return window(s.sortedVotesLocked(0), skip, limit), nil
}

func (r memLedger) ListByFeature(_ context.Context, featureID int64) ([]votemodel.Vote, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.features[featureID]; !ok {
		return nil, votemodel.ErrFeatureNotFound
	}
	return s.sortedVotesLocked(featureID), nil
}

func (s *MemStore) sortedVotesLocked(featureID int64) []votemodel.Vote {
	out := make([]votemodel.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		if featureID == 0 || v.FeatureID == featureID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func window[T any](all []T, skip, limit int) []T {
	if skip >= len(all) {
		return []T{}
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]T{}, all[skip:end]...)
}

// ErrInjected is returned by failing fakes in tests
var ErrInjected = errors.New("injected failure")
