package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kitbuilder587/searx-proxy/internal/cache/memory"
	"github.com/kitbuilder587/searx-proxy/internal/domain"
	"github.com/kitbuilder587/searx-proxy/internal/filter"
	"github.com/kitbuilder587/searx-proxy/internal/metrics"
	"github.com/kitbuilder587/searx-proxy/internal/preferences"
	"github.com/kitbuilder587/searx-proxy/internal/rewrite"
	"github.com/kitbuilder587/searx-proxy/internal/searx"
	"github.com/kitbuilder587/searx-proxy/internal/selector"
)

const refreshKey = "directory"

type ProxyService interface {
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error)
	SavePreferences(ctx context.Context, prefs domain.Preferences) error
	Preferences() domain.Preferences
	Candidates() memory.Snapshot
}

type ProxyConfig struct {
	Filter         domain.FilterConfig
	RefreshTimeout time.Duration
}

type ProxyServiceDeps struct {
	Client   searx.Client
	Cache    *memory.InstanceCache
	Selector *selector.Selector
	Store    preferences.Store
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Config   ProxyConfig
}

type proxyService struct {
	client   searx.Client
	cache    *memory.InstanceCache
	selector *selector.Selector
	store    preferences.Store
	logger   *zap.Logger
	metrics  *metrics.Metrics
	config   ProxyConfig

	filter       atomic.Pointer[domain.FilterConfig]
	refreshGroup singleflight.Group
	// applyMu сериализует "взять фильтр -> отфильтровать -> записать в кеш",
	// чтобы refresh со старым фильтром не перетер результат SavePreferences
	applyMu sync.Mutex
}

func NewProxyService(deps ProxyServiceDeps) ProxyService {
	if deps.Cache == nil {
		deps.Cache = memory.New(memory.DefaultTTL)
	}
	if deps.Selector == nil {
		deps.Selector = selector.New()
	}
	if deps.Store == nil {
		deps.Store = preferences.NewMemory()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config.RefreshTimeout == 0 {
		deps.Config.RefreshTimeout = 30 * time.Second
	}

	s := &proxyService{
		client:   deps.Client,
		cache:    deps.Cache,
		selector: deps.Selector,
		store:    deps.Store,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		config:   deps.Config,
	}
	initial := deps.Config.Filter.Clone()
	s.filter.Store(&initial)
	return s
}

func (s *proxyService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	startTime := time.Now()

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	if err := req.Validate(); err != nil {
		s.record("invalid_request", startTime)
		return nil, err
	}
	req.Sanitize()

	if err := s.ensureFresh(ctx); err != nil {
		s.record("directory_unavailable", startTime)
		return nil, err
	}

	snap := s.cache.Snapshot()
	instance, err := s.selector.Pick(snap.URLs)
	if err != nil {
		s.record("no_eligible_instance", startTime)
		s.logger.Warn("no eligible instance",
			zap.Time("candidates_created_at", snap.CreatedAt),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrNoEligibleInstance, err)
	}

	s.logger.Info("proxying search",
		zap.String("instance", instance),
		zap.Int("query_length", len(req.Query)),
		zap.Int("candidates", len(snap.URLs)),
	)

	fetchStart := time.Now()
	body, err := s.client.FetchSearchPage(ctx, instance, req.Query)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordInstanceRequest("error", time.Since(fetchStart))
		}
		s.record("instance_unreachable", startTime)
		s.logger.Warn("instance fetch failed",
			zap.String("instance", instance),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrInstanceUnreachable) {
			err = fmt.Errorf("%w: %v", domain.ErrInstanceUnreachable, err)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordInstanceRequest("ok", time.Since(fetchStart))
	}

	s.record("ok", startTime)
	return &domain.SearchResponse{
		Body:     rewrite.HTML(body, rewrite.EnsureTrailingSlash(instance)),
		Instance: instance,
	}, nil
}

// ensureFresh обновляет кеш, если пора. Параллельные запросы на истечении TTL
// схлопываются в один поход в каталог.
func (s *proxyService) ensureFresh(ctx context.Context) error {
	if !s.cache.IsRefreshDue() {
		return nil
	}

	_, err, shared := s.refreshGroup.Do(refreshKey, func() (interface{}, error) {
		// double-check: пока ждали, другой flight мог уже обновить кеш
		if !s.cache.IsRefreshDue() {
			return nil, nil
		}
		// отмена одного клиента не должна ронять общий refresh
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.RefreshTimeout)
		defer cancel()
		return nil, s.refresh(refreshCtx)
	})
	if shared {
		s.logger.Debug("joined in-flight directory refresh")
	}
	return err
}

func (s *proxyService) refresh(ctx context.Context) error {
	startTime := time.Now()

	dir, err := s.client.FetchDirectory(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRefresh("error", time.Since(startTime), 0)
		}
		s.logger.Warn("directory fetch failed, keeping current cache",
			zap.Int("cached_candidates", s.cache.Len()),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrDirectoryUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
		}
		return err
	}

	s.applyMu.Lock()
	cfg := s.filter.Load()
	urls := filter.Apply(dir, *cfg)
	s.cache.Replace(urls)
	s.applyMu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordRefresh("ok", time.Since(startTime), len(urls))
	}
	s.logger.Info("instance cache refreshed",
		zap.Int("instances", len(dir)),
		zap.Int("candidates", len(urls)),
		zap.Duration("took", time.Since(startTime)),
	)
	return nil
}

func (s *proxyService) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	cfg := prefs.ToFilterConfig()

	dir, err := s.client.FetchDirectory(ctx)
	if err != nil {
		s.logger.Warn("directory fetch failed, preferences not applied", zap.Error(err))
		if !errors.Is(err, domain.ErrDirectoryUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
		}
		return err
	}

	s.applyMu.Lock()
	urls := filter.Apply(dir, cfg)
	s.cache.Replace(urls)
	s.filter.Store(&cfg)
	s.applyMu.Unlock()

	s.logger.Info("filter preferences applied",
		zap.Strings("grades", cfg.EffectiveGrades()),
		zap.Int("ceilings", len(cfg.Ceilings)),
		zap.Int("instances", len(dir)),
		zap.Int("candidates", len(urls)),
	)

	if err := s.store.Save(ctx, domain.PreferencesFromFilterConfig(cfg)); err != nil {
		s.logger.Error("preferences persist failed", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrPreferencesNotSaved, err)
	}
	return nil
}

func (s *proxyService) Preferences() domain.Preferences {
	return domain.PreferencesFromFilterConfig(*s.filter.Load())
}

func (s *proxyService) Candidates() memory.Snapshot {
	return s.cache.Snapshot()
}

func (s *proxyService) record(status string, startTime time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest("search", status, time.Since(startTime))
	}
}
