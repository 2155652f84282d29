package services

import (
	"context"
	"database/sql"
	"errors"

	"layeredge/internal/datastore"
	"layeredge/internal/models"
	"layeredge/internal/pkg/caching"

	"github.com/go-redsync/redsync/v4"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceQuest struct {
	container    *do.Injector
	redisDB      redis.UniversalClient
	redisDBCache redis.UniversalClient
	rs           *redsync.Redsync
	postgresDB   *bun.DB
	cache        caching.Cache
}

func NewServiceQuest(container *do.Injector) (*ServiceQuest, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	dbRedisCache, err := do.InvokeNamed[redis.UniversalClient](container, "redis-cache")
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceQuest{container, db, dbRedisCache, rs, postgresDB, cache}, nil
}

// GetQuestsForUser returns the enabled catalog annotated with the
// caller's per-quest status.
func (service *ServiceQuest) GetQuestsForUser(ctx context.Context, userID int64) ([]models.Quest, error) {
	callback := func() ([]models.Quest, error) {
		quests, err := datastore.GetEnabledQuests(ctx, service.postgresDB)
		if err != nil {
			return nil, err
		}

		userQuests, err := datastore.GetUserQuests(ctx, service.postgresDB, userID)
		if err != nil {
			return nil, err
		}

		statuses := make(map[int64]models.QuestStatus, len(userQuests))
		for _, userQuest := range userQuests {
			statuses[userQuest.QuestID] = userQuest.Status
		}

		for i := range quests {
			status, ok := statuses[quests[i].ID]
			if !ok {
				status = models.QuestStatusNotStarted
			}
			quests[i].Status = status
		}

		return quests, nil
	}

	return caching.UseCache(ctx, service.cache, DBKeyUserQuests(userID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceQuest) getQuest(ctx context.Context, questID int64) (*models.Quest, error) {
	quest, err := datastore.GetQuestByID(ctx, service.postgresDB, questID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("quest not found"), errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return quest, nil
}

func (service *ServiceQuest) Start(ctx context.Context, user *models.User, questID int64) (*models.UserQuest, error) {
	quest, err := service.getQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	if quest.Type == models.QuestTypeRedirect {
		return nil, errorx.Wrap(errors.New("redirect quests complete through the redirect action"), errorx.Invalid)
	}

	userQuest, err := datastore.StartQuest(ctx, service.postgresDB, user.ID, questID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.invalidateQuests(ctx, user.ID)

	return userQuest, nil
}

// Submit records completion evidence. Quests flagged for manual
// verification stay in_progress until a verifier acts.
func (service *ServiceQuest) Submit(ctx context.Context, user *models.User, questID int64) (*models.UserQuest, error) {
	quest, err := service.getQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	if quest.RequiresVerification {
		userQuest, err := datastore.GetUserQuest(ctx, service.postgresDB, user.ID, questID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errorx.Wrap(datastore.ErrQuestNotStarted, errorx.Invalid)
		}
		if err != nil {
			return nil, errorx.Wrap(err, errorx.Service)
		}
		return userQuest, nil
	}

	userQuest, err := datastore.CompleteQuest(ctx, service.postgresDB, user.ID, questID)
	if errors.Is(err, datastore.ErrQuestNotStarted) {
		return nil, errorx.Wrap(err, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.invalidateQuests(ctx, user.ID)

	return userQuest, nil
}

// Claim grants the reward for a completed quest, exactly once.
func (service *ServiceQuest) Claim(ctx context.Context, user *models.User, questID int64) (*models.UserQuest, error) {
	quest, err := service.getQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	mutex := service.rs.NewMutex(LockKeyUserQuest(user.ID, questID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrQuestLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	userQuest, awarded, err := datastore.ClaimQuest(ctx, service.postgresDB, user.ID, quest)
	if errors.Is(err, datastore.ErrQuestNotStarted) || errors.Is(err, datastore.ErrQuestNotCompleted) {
		return nil, errorx.Wrap(err, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if awarded {
		service.invalidateAfterAward(ctx, user.ID)
	}

	return userQuest, nil
}

// Redirect handles redirect-type quests: the visit both completes and
// claims in one atomic step, so two rapid calls cannot double-award.
func (service *ServiceQuest) Redirect(ctx context.Context, user *models.User, questID int64) (*models.UserQuest, error) {
	quest, err := service.getQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	if quest.Type != models.QuestTypeRedirect {
		return nil, errorx.Wrap(datastore.ErrQuestNotRedirect, errorx.Invalid)
	}

	mutex := service.rs.NewMutex(LockKeyUserQuest(user.ID, questID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrQuestLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	userQuest, awarded, err := datastore.RedirectQuest(ctx, service.postgresDB, user.ID, quest)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if awarded {
		service.invalidateAfterAward(ctx, user.ID)
	}

	return userQuest, nil
}

// Verify is the external-verifier hook for manually checked quests.
func (service *ServiceQuest) Verify(ctx context.Context, userID int64, questID int64) (*models.UserQuest, error) {
	userQuest, err := datastore.CompleteQuest(ctx, service.postgresDB, userID, questID)
	if errors.Is(err, datastore.ErrQuestNotStarted) {
		return nil, errorx.Wrap(err, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.invalidateQuests(ctx, userID)

	return userQuest, nil
}

func (service *ServiceQuest) invalidateQuests(ctx context.Context, userID int64) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserQuests(userID))
}

func (service *ServiceQuest) invalidateAfterAward(ctx context.Context, userID int64) {
	service.invalidateQuests(ctx, userID)

	serviceUser, err := do.Invoke[*ServiceUser](service.container)
	if err == nil {
		serviceUser.InvalidateUser(ctx, userID)
	}

	serviceLeaderboard, err := do.Invoke[*ServiceLeaderboard](service.container)
	if err == nil {
		//nolint:errcheck
		serviceLeaderboard.RefreshUser(ctx, userID)
	}
}
