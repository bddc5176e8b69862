package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/session"
)

// ItemsView is a local copy of the signed-in user's challenge items.
//
// Play writes bump the local progress immediately, then the copy is replaced
// by a fresh read once the write settles, whether it succeeded or not. The
// tentative value is never kept. A session change empties the view, and reads
// that started under an older session are discarded.
type ItemsView struct {
	svc         *TrackerService
	unsubscribe func()

	mu          sync.RWMutex
	generation  uint64
	userID      string
	challengeID string
	items       []*models.ChallengeItem
}

func NewItemsView(svc *TrackerService, sessions *session.Manager) *ItemsView {
	v := &ItemsView{svc: svc, userID: sessions.Current().UserID}
	v.unsubscribe = sessions.Subscribe(v.onSession)
	return v
}

// Close detaches the view from the session manager.
func (v *ItemsView) Close() {
	v.unsubscribe()
}

func (v *ItemsView) onSession(s session.Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.userID = s.UserID
	v.challengeID = ""
	v.items = nil
}

// Items returns a snapshot of the current copy.
func (v *ItemsView) Items() []*models.ChallengeItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*models.ChallengeItem, len(v.items))
	for i, it := range v.items {
		c := *it
		out[i] = &c
	}
	return out
}

// Refresh replaces the copy with the stored items.
func (v *ItemsView) Refresh(ctx context.Context) error {
	v.mu.RLock()
	gen, userID, challengeID := v.generation, v.userID, v.challengeID
	v.mu.RUnlock()

	if userID == "" {
		return common.ErrorUnauthorized
	}

	if challengeID == "" {
		c, err := v.svc.LoadChallenge(ctx, userID)
		if err != nil {
			return err
		}
		challengeID = c.ID
	}

	items, err := v.svc.LoadItems(ctx, challengeID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		// session changed while loading
		return nil
	}
	v.challengeID = challengeID
	v.items = items
	return nil
}

// LogPlay logs a play through the service with an optimistic +1 on the
// local progress, then reconciles.
func (v *ItemsView) LogPlay(ctx context.Context, gameID string, in models.PlayInput) (*models.Play, error) {
	userID, challengeID, err := v.ids(ctx)
	if err != nil {
		return nil, err
	}

	gen, before := v.adjust(gameID, +1)
	play, err := v.svc.LogPlay(ctx, userID, challengeID, gameID, in)
	return play, v.settle(ctx, gen, before, err)
}

// DeletePlay deletes a play with an optimistic -1, then reconciles.
func (v *ItemsView) DeletePlay(ctx context.Context, playID, gameID string) error {
	userID, challengeID, err := v.ids(ctx)
	if err != nil {
		return err
	}

	gen, before := v.adjust(gameID, -1)
	err = v.svc.DeletePlay(ctx, userID, challengeID, playID, gameID)
	return v.settle(ctx, gen, before, err)
}

// Scope returns the signed-in user and their challenge id, loading the
// challenge on first use.
func (v *ItemsView) Scope(ctx context.Context) (userID, challengeID string, err error) {
	return v.ids(ctx)
}

func (v *ItemsView) ids(ctx context.Context) (string, string, error) {
	v.mu.RLock()
	userID, challengeID := v.userID, v.challengeID
	v.mu.RUnlock()

	if challengeID == "" {
		if err := v.Refresh(ctx); err != nil {
			return "", "", err
		}
		v.mu.RLock()
		userID, challengeID = v.userID, v.challengeID
		v.mu.RUnlock()
	}
	if userID == "" || challengeID == "" {
		return "", "", common.ErrorUnauthorized
	}
	return userID, challengeID, nil
}

// adjust applies a tentative progress change and returns the copy it replaced.
func (v *ItemsView) adjust(gameID string, delta int) (uint64, []*models.ChallengeItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	before := v.items
	next := make([]*models.ChallengeItem, len(before))
	copy(next, before)
	for i, it := range next {
		if it.GameID == gameID {
			c := *it
			c.Progress = max(c.Progress+delta, 0)
			next[i] = &c
			break
		}
	}
	v.items = next
	return v.generation, before
}

// settle always reloads. If the reload fails too, the tentative copy is
// rolled back. The write error wins over a reload error.
func (v *ItemsView) settle(ctx context.Context, gen uint64, before []*models.ChallengeItem, writeErr error) error {
	refreshErr := v.Refresh(ctx)
	if refreshErr != nil {
		v.mu.Lock()
		if v.generation == gen {
			v.items = before
		}
		v.mu.Unlock()
	}
	if writeErr != nil {
		return writeErr
	}
	if refreshErr != nil {
		return errors.Join(errors.New("reload items after write"), refreshErr)
	}
	return nil
}
