// Package livefeed pushes ranking refreshes to the browser over a websocket.
//
// Each connection owns one revalidating query seeded with the server-rendered data. The query
// is refreshed on the chain's polling interval, re-parameterized by client messages and
// re-targeted when the visitor's session switches chain.
package livefeed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"nft-storefront/internal/adapter/metrics"
	"nft-storefront/internal/application/chaincontext"
	"nft-storefront/internal/application/port"
	"nft-storefront/internal/application/revalidate"
	"nft-storefront/internal/config"
	"nft-storefront/internal/domain/entity"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Params identify what a feed is currently showing.
type Params struct {
	ChainID int64
	SortBy  entity.SortBy
	Period  entity.MintPeriod
}

// Rankings is the data of one feed. Only the field matching the feed kind is filled.
type Rankings struct {
	Collections entity.CollectionsPayload
	Mints       entity.MintsPayload
}

// Message is one pushed snapshot.
type Message struct {
	Kind        entity.RankingKind         `json:"kind"`
	ChainID     int64                      `json:"chainId"`
	SortBy      entity.SortBy              `json:"sortBy,omitempty"`
	VolumeKey   entity.VolumeKey           `json:"volumeKey,omitempty"`
	Period      entity.MintPeriod          `json:"period,omitempty"`
	State       string                     `json:"state"`
	Validating  bool                       `json:"validating"`
	Version     uint64                     `json:"version"`
	Collections *entity.CollectionsPayload `json:"collections,omitempty"`
	Mints       *entity.MintsPayload       `json:"mints,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// clientMessage changes the ranking window. Unknown values are ignored.
type clientMessage struct {
	SortBy string `json:"sortBy"`
	Period string `json:"period"`
}

// Handler upgrades /ws/{chain}/rankings requests to a live ranking feed.
type Handler struct {
	registry   port.ChainRegistry
	prefetch   port.PrefetchService
	contexts   *chaincontext.Manager
	cfg        config.FeedConfig
	cookieName string
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewHandler creates the feed handler. m may be nil.
func NewHandler(
	registry port.ChainRegistry,
	prefetch port.PrefetchService,
	contexts *chaincontext.Manager,
	cfg config.FeedConfig,
	cookieName string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		registry:   registry,
		prefetch:   prefetch,
		contexts:   contexts,
		cfg:        cfg,
		cookieName: cookieName,
		metrics:    m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: logger.Named("LiveFeed"),
	}
}

// ServeHTTP validates the request, upgrades it and runs the feed until the client leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix, err := chainFromPath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	chain, ok := h.registry.Lookup(prefix)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown chain %q", prefix), http.StatusNotFound)
		return
	}
	kind := entity.RankingCollections
	if raw := r.URL.Query().Get("kind"); raw != "" {
		if kind, err = entity.ParseRankingKind(raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	query := r.URL.Query()
	params := Params{ChainID: chain.ID, SortBy: entity.DefaultSortBy, Period: entity.DefaultMintPeriod}
	if s, err := entity.ParseSortBy(query.Get("sortBy")); err == nil {
		params.SortBy = s
	}
	if p, err := entity.ParseMintPeriod(query.Get("period")); err == nil {
		params.Period = p
	}
	sessionID := ""
	if c, err := r.Cookie(h.cookieName); err == nil {
		sessionID = c.Value
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.String("path", r.URL.Path), zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.FeedConnections.Inc()
		defer h.metrics.FeedConnections.Dec()
	}

	h.logger.Debug("Feed connected",
		zap.Int64("chainId", chain.ID),
		zap.String("kind", string(kind)),
		zap.Any("params", params),
		zap.String("session", sessionID),
	)

	f := &feed{
		h:         h,
		conn:      conn,
		kind:      kind,
		sessionID: sessionID,
	}
	f.run(r.Context(), chain, params)
}

// chainFromPath extracts {chain} from /ws/{chain}/rankings.
func chainFromPath(path string) (string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "ws" || parts[2] != "rankings" || parts[1] == "" {
		return "", fmt.Errorf("no feed at %q", path)
	}
	return parts[1], nil
}

// feed is one websocket connection. Only run writes to conn; only readLoop reads from it.
type feed struct {
	h         *Handler
	conn      *websocket.Conn
	kind      entity.RankingKind
	sessionID string
}

func (f *feed) run(parent context.Context, chain entity.NetworkDescriptor, params Params) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	opts := revalidate.Options[Rankings]{KeepPreviousData: true}
	seed, err := f.fetch(ctx, params)
	if err != nil {
		// The page already shows its rendered rows; start without data rather than over them.
		f.h.logger.Debug("Feed seed failed", zap.Any("params", params), zap.Error(err))
	} else {
		opts.Fallback = &seed
	}
	q := revalidate.NewQuery(f.fetch, params, opts)

	changed := make(chan struct{}, 1)
	unsubscribe := q.Subscribe(func(revalidate.Snapshot[Params, Rankings]) {
		signal(changed)
	})
	defer unsubscribe()

	var switchedTo atomic.Int64
	switched := make(chan struct{}, 1)
	if f.sessionID != "" {
		stop := f.h.contexts.ForSession(f.sessionID).Subscribe(func(next entity.NetworkDescriptor) {
			switchedTo.Store(next.ID)
			signal(switched)
		})
		defer stop()
	}

	incoming := make(chan clientMessage)
	go f.readLoop(ctx, cancel, incoming)

	var inflight atomic.Bool
	revalidateAsync := func() {
		if !inflight.CompareAndSwap(false, true) {
			return
		}
		go func() {
			defer inflight.Store(false)
			if err := q.Revalidate(ctx); err != nil && ctx.Err() == nil {
				f.h.logger.Debug("Feed revalidation failed", zap.Int64("chainId", q.Snapshot().Params.ChainID), zap.Error(err))
			}
		}()
	}
	setParamsAsync := func(p Params) {
		go func() {
			if err := q.SetParams(ctx, p); err != nil && ctx.Err() == nil {
				f.h.logger.Debug("Feed parameter change failed", zap.Any("params", p), zap.Error(err))
			}
		}()
	}

	poll := time.NewTicker(chain.EffectivePollingInterval(f.h.cfg.GetDefaultPollInterval()))
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// want is the latest requested params; q may still be fetching an older set.
	want := params
	if opts.Fallback != nil {
		signal(changed)
	}
	revalidateAsync()

	for {
		select {
		case <-ctx.Done():
			return

		case <-poll.C:
			revalidateAsync()

		case msg := <-incoming:
			if s, err := entity.ParseSortBy(msg.SortBy); err == nil {
				want.SortBy = s
			}
			if p, err := entity.ParseMintPeriod(msg.Period); err == nil {
				want.Period = p
			}
			setParamsAsync(want)

		case <-switched:
			target, ok := f.h.registry.ChainByID(switchedTo.Load())
			if !ok {
				continue
			}
			if want.ChainID == target.ID {
				continue
			}
			want.ChainID = target.ID
			poll.Reset(target.EffectivePollingInterval(f.h.cfg.GetDefaultPollInterval()))
			setParamsAsync(want)

		case <-changed:
			if err := f.write(websocket.TextMessage, f.message(q.Snapshot())); err != nil {
				f.h.logger.Debug("Feed write failed, closing", zap.Error(err))
				return
			}

		case <-ping.C:
			if err := f.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *feed) fetch(ctx context.Context, p Params) (Rankings, error) {
	chain, ok := f.h.registry.ChainByID(p.ChainID)
	if !ok {
		return Rankings{}, fmt.Errorf("chain %d is not served", p.ChainID)
	}
	prefetch := f.h.prefetch
	if f.kind == entity.RankingMints {
		payload, err := prefetch.Mints(ctx, chain, prefetch.MintsQuery(p.Period, entity.MintTypeAny, 0))
		return Rankings{Mints: payload}, err
	}
	payload, err := prefetch.Collections(ctx, chain, prefetch.CollectionsQuery(port.CollectionSetTrending, p.SortBy, 0, ""))
	return Rankings{Collections: payload}, err
}

func (f *feed) message(s revalidate.Snapshot[Params, Rankings]) []byte {
	msg := Message{
		Kind:       f.kind,
		ChainID:    s.Params.ChainID,
		State:      s.State.String(),
		Validating: s.Validating,
		Version:    s.Version,
	}
	// Without data the payload is omitted so the client keeps the rows it has.
	if f.kind == entity.RankingMints {
		msg.Period = s.Params.Period
		if s.HasData {
			msg.Mints = &s.Data.Mints
		}
	} else {
		msg.SortBy = s.Params.SortBy
		msg.VolumeKey = s.Params.SortBy.VolumeKey()
		if s.HasData {
			msg.Collections = &s.Data.Collections
		}
	}
	if s.Err != nil {
		msg.Error = "rankings are temporarily unavailable"
	}

	body, err := json.Marshal(msg)
	if err != nil {
		f.h.logger.Error("Failed to encode feed message", zap.Error(err))
		return []byte(`{}`)
	}
	return body
}

func (f *feed) write(messageType int, data []byte) error {
	timeout := f.h.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := f.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return f.conn.WriteMessage(messageType, data)
}

// readLoop forwards client messages until the connection fails, then cancels the feed.
func (f *feed) readLoop(ctx context.Context, cancel context.CancelFunc, out chan<- clientMessage) {
	defer cancel()

	if f.h.cfg.MaxMessageSize > 0 {
		f.conn.SetReadLimit(f.h.cfg.MaxMessageSize)
	}
	_ = f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.h.logger.Debug("Feed read failed", zap.Error(err))
			}
			return
		}
		_ = f.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.h.logger.Debug("Ignoring malformed feed message", zap.Error(err))
			continue
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
