package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/stmtimport/internal/config"
	"github.com/JonMunkholm/stmtimport/internal/csvfile"
	"github.com/JonMunkholm/stmtimport/internal/ledger"
	"github.com/JonMunkholm/stmtimport/internal/logging"
	"github.com/JonMunkholm/stmtimport/internal/mapper"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

var (
	ErrImportNotFound     = errors.New("import not found")
	ErrInvalidPhase       = errors.New("invalid import phase")
	ErrNoMatchingStrategy = errors.New("no matching strategy")
	ErrStrategyIncomplete = errors.New("strategy is incomplete")
	ErrFileTooLarge       = errors.New("file too large")
	ErrCommitIncomplete   = errors.New("commit incomplete")
	ErrNotArchived        = errors.New("statement not archived")
)

// StrategyStore persists strategies.
type StrategyStore interface {
	ListStrategies(ctx context.Context) ([]*strategy.Strategy, error)
	GetStrategy(ctx context.Context, id int64) (*strategy.Strategy, error)
	CreateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error)
	UpdateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error)
	DeleteStrategy(ctx context.Context, id int64) error
}

// Store is everything ImportService needs from persistence.
type Store interface {
	ledger.Repository
	ledger.TxRunner
	StrategyStore
}

// Archiver keeps a copy of each uploaded statement.
type Archiver interface {
	Archive(ctx context.Context, importID uuid.UUID, fileName string, data []byte) (string, error)
	Fetch(ctx context.Context, objectName string) ([]byte, error)
}

// Options tunes ImportService. Zero values pick the defaults below.
type Options struct {
	SessionTTL      time.Duration
	MaxFileSize     int64
	MaxRows         int
	ErrorSampleSize int
	MaxConcurrent   int
	MaxWait         time.Duration
}

const (
	DefaultSessionTTL      = 30 * time.Minute
	DefaultMaxFileSize     = 20 << 20
	DefaultErrorSampleSize = 50
)

// OptionsFrom reads Options from the import settings.
func OptionsFrom(cfg config.ImportConfig) Options {
	return Options{
		SessionTTL:      cfg.SessionTTL,
		MaxFileSize:     cfg.MaxFileSize,
		MaxRows:         cfg.MaxRows,
		ErrorSampleSize: cfg.ErrorSampleSize,
		MaxConcurrent:   cfg.MaxConcurrent,
		MaxWait:         cfg.MaxWaitTime,
	}
}

func (o Options) withDefaults() Options {
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.ErrorSampleSize <= 0 {
		o.ErrorSampleSize = DefaultErrorSampleSize
	}
	return o
}

// ImportService runs the import lifecycle and the strategy operations.
type ImportService struct {
	store    Store
	archiver Archiver
	opts     Options
	sessions *cache.Cache
	limiter  *ImportLimiter
}

// NewImportService wires a service. archiver may be nil.
func NewImportService(store Store, archiver Archiver, opts Options) *ImportService {
	opts = opts.withDefaults()
	return &ImportService{
		store:    store,
		archiver: archiver,
		opts:     opts,
		sessions: cache.New(opts.SessionTTL, opts.SessionTTL/2),
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
	}
}

// PrepareRequest starts an import. A nil StrategyID picks the first stored
// strategy whose identification columns equal the file headings.
type PrepareRequest struct {
	StrategyID *int64
	FileName   string
	File       io.Reader
}

// Prepare parses the file, maps every row and opens a session.
func (s *ImportService) Prepare(ctx context.Context, req PrepareRequest) (ImportSummary, error) {
	if req.File == nil {
		return ImportSummary{}, errors.New("no file provided")
	}
	data, err := io.ReadAll(io.LimitReader(req.File, s.opts.MaxFileSize+1))
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return ImportSummary{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.opts.MaxFileSize)
	}

	file, err := csvfile.Read(bytes.NewReader(data), csvfile.Options{MaxRows: s.opts.MaxRows})
	if err != nil {
		return ImportSummary{}, err
	}

	st, err := s.pickStrategy(ctx, req.StrategyID, file.Headings)
	if err != nil {
		return ImportSummary{}, err
	}
	if missing := st.MissingFields(); len(missing) > 0 {
		return ImportSummary{}, fmt.Errorf("%w: %q is missing %v", ErrStrategyIncomplete, st.Name, missing)
	}

	prep, err := s.mapFile(ctx, st, file)
	if err != nil {
		return ImportSummary{}, err
	}

	now := time.Now().UTC()
	ip, ua := ClientFromContext(ctx)
	sess := &session{
		id:              uuid.New(),
		fileName:        req.FileName,
		strategy:        st,
		file:            file,
		prep:            prep,
		phase:           PhasePrepared,
		createdAccounts: map[string]int64{},
		clientIP:        ip,
		userAgent:       ua,
		createdAt:       now,
		updatedAt:       now,
	}

	log := logging.WithFields(ctx, "import_id", sess.id, "strategy", st.Name)
	if s.archiver != nil {
		name, err := s.archiver.Archive(ctx, sess.id, req.FileName, data)
		if err != nil {
			log.Warn("statement archive failed", "error", err)
		}
		sess.archivedAs = name
	}

	s.sessions.Set(sess.id.String(), sess, cache.DefaultExpiration)
	log.Info("import prepared",
		"file", req.FileName,
		"rows", prep.TotalRows,
		"valid", len(prep.ValidTransfers),
		"errors", len(prep.ErrorRows),
		"new_accounts", len(prep.NewAccounts),
	)
	for _, e := range prep.ErrorRows {
		log.Debug("row rejected", "row", e.RowIndex, "reason", e.Message)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.summary(s.opts.ErrorSampleSize), nil
}

func (s *ImportService) pickStrategy(ctx context.Context, id *int64, headings []string) (*strategy.Strategy, error) {
	if id != nil {
		return s.store.GetStrategy(ctx, *id)
	}
	all, err := s.store.ListStrategies(ctx)
	if err != nil {
		return nil, err
	}
	matches := strategy.FindAllMatchingStrategies(headings, all)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for columns %v", ErrNoMatchingStrategy, strategy.NormalizeHeadings(headings))
	}
	if len(matches) > 1 {
		logging.FromContext(ctx).Info("several strategies match, using the first",
			"chosen", matches[0].Name, "matches", len(matches))
	}
	return matches[0], nil
}

func (s *ImportService) mapFile(ctx context.Context, st *strategy.Strategy, file *csvfile.File) (*mapper.Preparation, error) {
	snap, err := ledger.LoadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return mapper.New(st, file.Columns, snap).PrepareImport(file.Rows), nil
}

// session looks an import up and extends its lifetime.
func (s *ImportService) session(id uuid.UUID) (*session, error) {
	v, ok := s.sessions.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("import %s: %w", id, ErrImportNotFound)
	}
	sess := v.(*session)
	s.sessions.Set(id.String(), sess, cache.DefaultExpiration)
	return sess, nil
}

// Get returns the current state of an import.
func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (ImportSummary, error) {
	sess, err := s.session(id)
	if err != nil {
		return ImportSummary{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.summary(s.opts.ErrorSampleSize), nil
}

// Statement returns the archived copy of the uploaded file.
func (s *ImportService) Statement(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	sess, err := s.session(id)
	if err != nil {
		return "", nil, err
	}
	sess.mu.Lock()
	fileName, object := sess.fileName, sess.archivedAs
	sess.mu.Unlock()

	if s.archiver == nil || object == "" {
		return "", nil, fmt.Errorf("import %s: %w", id, ErrNotArchived)
	}
	data, err := s.archiver.Fetch(ctx, object)
	if err != nil {
		return "", nil, err
	}
	return fileName, data, nil
}

// Discard forgets an import.
func (s *ImportService) Discard(id uuid.UUID) error {
	if _, ok := s.sessions.Get(id.String()); !ok {
		return fmt.Errorf("import %s: %w", id, ErrImportNotFound)
	}
	s.sessions.Delete(id.String())
	return nil
}

// CreateAccounts creates every pending account in one transaction and maps
// the file again. An account whose name appeared in the meantime is reused.
func (s *ImportService) CreateAccounts(ctx context.Context, id uuid.UUID) (ImportSummary, error) {
	sess, err := s.session(id)
	if err != nil {
		return ImportSummary{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase != PhasePrepared && sess.phase != PhaseAccountsCreated {
		return ImportSummary{}, fmt.Errorf("%w: cannot create accounts in phase %s", ErrInvalidPhase, sess.phase)
	}
	log := logging.WithFields(ctx, "import_id", sess.id, "strategy", sess.strategy.Name)

	if sess.prep.HasPendingAccounts() {
		created := make(map[string]int64, len(sess.prep.NewAccounts))
		err := s.store.InTx(ctx, func(tx ledger.Tx) error {
			snap, err := ledger.LoadSnapshot(ctx, tx)
			if err != nil {
				return err
			}
			for _, na := range sess.prep.NewAccounts {
				if a, ok := snap.AccountByName(na.Name); ok {
					created[na.Name] = a.ID
					continue
				}
				accountID, err := tx.CreateAccount(ctx, na.Name, na.CategoryID)
				if err != nil {
					return fmt.Errorf("create account %q: %w", na.Name, err)
				}
				created[na.Name] = accountID
			}
			return nil
		})
		if err != nil {
			log.Error("account creation failed", "error", err)
			return ImportSummary{}, err
		}
		for name, accountID := range created {
			sess.createdAccounts[name] = accountID
		}
		sess.moveTo(PhaseAccountsCreated)
		log.Info("accounts created", "count", len(created))
	}

	prep, err := s.mapFile(ctx, sess.strategy, sess.file)
	if err != nil {
		return ImportSummary{}, err
	}
	sess.prep = prep
	sess.moveTo(PhaseRemapped)
	log.Info("import remapped", "valid", len(prep.ValidTransfers), "errors", len(prep.ErrorRows))
	return sess.summary(s.opts.ErrorSampleSize), nil
}

// Commit writes every valid transfer of an import in one transaction and
// returns how many were written.
func (s *ImportService) Commit(ctx context.Context, id uuid.UUID) (int64, error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.canCommit() {
		if sess.phase != PhaseCommitted && sess.prep.HasPendingAccounts() {
			return 0, fmt.Errorf("%w: %d accounts must be created first", ErrInvalidPhase, len(sess.prep.NewAccounts))
		}
		return 0, fmt.Errorf("%w: cannot commit in phase %s", ErrInvalidPhase, sess.phase)
	}

	transfers := make([]ledger.Transfer, len(sess.prep.ValidTransfers))
	for i, t := range sess.prep.ValidTransfers {
		t.ImportID = sess.id
		transfers[i] = t
	}

	log := logging.WithFields(ctx, "import_id", sess.id, "strategy", sess.strategy.Name)
	var written int64
	err = s.limiter.Do(ctx, func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx ledger.Tx) error {
			n, err := tx.InsertTransfers(ctx, transfers)
			if err != nil {
				return err
			}
			stored, err := tx.CountTransfers(ctx, sess.id)
			if err != nil {
				return fmt.Errorf("count committed transfers: %w", err)
			}
			if n != int64(len(transfers)) || stored != n {
				return fmt.Errorf("%w: %d transfers to write, %d written, %d stored", ErrCommitIncomplete, len(transfers), n, stored)
			}
			written = n
			return nil
		})
	})
	if err != nil {
		log.Error("commit failed", "error", err)
		return 0, err
	}

	sess.committed = written
	sess.moveTo(PhaseCommitted)
	log.Info("import committed", "transfers", written)
	return written, nil
}

// WriteErrorsCSV writes every row error of an import as "row,message".
func (s *ImportService) WriteErrorsCSV(id uuid.UUID, w io.Writer) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	rows := append([]mapper.RowError{}, sess.prep.ErrorRows...)
	sess.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"row", "message"}); err != nil {
		return err
	}
	for _, e := range rows {
		if err := cw.Write([]string{strconv.FormatInt(e.RowIndex, 10), cellText(e.Message)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cellText keeps spreadsheet programs from evaluating a cell as a formula.
func cellText(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// LimiterStatus reports commit slot usage.
func (s *ImportService) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForCommits blocks until running commits finish or ctx ends.
func (s *ImportService) WaitForCommits(ctx context.Context) error {
	return s.limiter.Drain(ctx)
}
