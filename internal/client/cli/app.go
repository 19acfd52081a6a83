package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/auth"
	"github.com/dmitrijs2005/keepsake/internal/client/client"
	"github.com/dmitrijs2005/keepsake/internal/client/compose"
	"github.com/dmitrijs2005/keepsake/internal/client/config"
	"github.com/dmitrijs2005/keepsake/internal/client/repositories/revealed"
	"github.com/dmitrijs2005/keepsake/internal/client/revealcache"
	"github.com/dmitrijs2005/keepsake/internal/client/session"
	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
	"github.com/dmitrijs2005/keepsake/internal/timex"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const onlineCheckInterval = 5 * time.Second

// API is the server client plus the ability to switch sessions.
type API interface {
	client.Client
	SetSessionToken(token string)
}

// newAPI is a seam for tests.
var newAPI = func(cfg *config.Config) (API, error) {
	return client.NewKeepsakeClient(cfg.ServerEndpointAddr, cfg.SessionToken, cfg.RequestTimeout)
}

// feedBackend lets the session controller use the server client.
type feedBackend struct {
	api client.Client
}

func (b feedBackend) EnsureIdentity(ctx context.Context) (*models.Identity, error) {
	return b.api.EnsureIdentity(ctx)
}

func (b feedBackend) Subscribe(ctx context.Context, recipientID string) (session.Feed, error) {
	sub, err := b.api.Subscribe(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

type App struct {
	config  *config.Config
	api     API
	db      *sql.DB
	clock   *reveal.Clock
	session *session.Controller
	viewers chan *models.Viewer
	log     logging.Logger

	reader *bufio.Reader
	out    io.Writer

	// owned by the command goroutine
	viewer *models.Viewer
	draft  compose.Draft
	seen   int
	synced bool

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens local storage and the server connection and prepares the
// session for the viewer named by cfg.SessionToken, if any.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	loc, err := timex.LoadLocation(cfg.RevealLocation)
	if err != nil {
		return nil, err
	}
	deadline, err := timex.ParseDeadline(cfg.RevealDeadline, loc)
	if err != nil {
		return nil, err
	}
	clock := reveal.NewClock(deadline)

	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := newAPI(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		config:  cfg,
		api:     api,
		db:      db,
		clock:   clock,
		viewers: make(chan *models.Viewer),
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
	}

	if cfg.SessionToken != "" {
		v, err := auth.ViewerFromToken(cfg.SessionToken)
		if err != nil {
			log.Warn(ctx, "session token ignored", "error", err)
			api.SetSessionToken("")
		} else {
			a.viewer = v
		}
	}

	cache := revealcache.New(revealed.NewSQLiteRepository(db), clock, log)
	a.session = session.NewController(session.Config{
		Backend: feedBackend{api: api},
		Cache:   cache,
		Clock:   clock,
		Tokens:  invite.NewGenerator(nil),
		Tick:    cfg.TickInterval,
		Logger:  log,
	}, a.viewer, a.viewers)

	return a, nil
}

func (a *App) Close() error {
	a.session.Close()
	apiErr := a.api.Close()
	if err := a.db.Close(); err != nil {
		return err
	}
	return apiErr
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()
	if changed {
		a.log.Info(ctx, "connection mode changed", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher pings the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.api.Ping(pctx)
		cancel()
		if err != nil {
			a.setMode(ctx, ModeOffline)
		} else {
			a.setMode(ctx, ModeOnline)
		}
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) isSignedIn() bool {
	return a.viewer.Active()
}

func (a *App) getStatus() string {
	s := ""
	if a.viewer != nil {
		s = a.viewer.Name() + " "
	}
	state := a.session.State()
	s += state.Phase.String()
	if m := a.Mode(); m != ModeUnknown {
		s += " " + string(m)
	}
	return fmt.Sprintf("(%s)", s)
}

// prompt reports book changes the session announced since the last prompt,
// then returns the status shown in it.
func (a *App) prompt() string {
	select {
	case <-a.session.Updates():
		a.noteBookChanges()
	default:
	}
	return a.getStatus()
}

func (a *App) noteBookChanges() {
	st := a.session.State()
	if !st.Active() || st.Loading || st.FeedErr != nil {
		return
	}
	if n := st.Stats.Total - a.seen; a.synced && n > 0 {
		fmt.Fprintf(a.out, "%d new message(s) in your book\n", n)
	}
	a.seen = st.Stats.Total
	a.synced = true
}

// Dashboard runs the session and the REPL until the user leaves or ctx ends.
func (a *App) Dashboard(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = a.session.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)
	}()

	fmt.Fprintln(a.out, "Welcome to Keepsake (type 'help' for commands)")
	if !a.isSignedIn() {
		fmt.Fprintln(a.out, "You are not signed in. Use 'signin <token>' with a verified session token.")
	}

	runREPL(ctx, a, a.prompt, a.reader, a.out)

	cancel()
	wg.Wait()
	return nil
}
