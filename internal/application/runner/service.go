// Package runner drives the monthly clearing pipeline: export, convert,
// match, post, persist, report, notify. Each phase consults the entity
// state tracker so entities that dropped out earlier are skipped cleanly.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclear/clearing-backend/internal/domain/clearing"
	"github.com/openclear/clearing-backend/internal/domain/fiscal"
	"github.com/openclear/clearing-backend/internal/domain/ledger"
	"github.com/openclear/clearing-backend/internal/domain/matching"
	"github.com/openclear/clearing-backend/internal/domain/rules"
	"github.com/openclear/clearing-backend/internal/infrastructure/config"
	"github.com/openclear/clearing-backend/internal/infrastructure/storage"
	"github.com/openclear/clearing-backend/internal/report"
)

// Messages written back onto item rows by the posting phase.
const (
	msgCleared      = "Successfully cleared."
	msgDryRun       = "Dry run: posting skipped."
	msgClearFailure = "Clearing error: "
)

// EntityOutcome is everything the run produced for one entity.
type EntityOutcome struct {
	Entity  string
	Country string
	State   EntityState

	// Table is the annotated item table; nil when the entity never got
	// past the export phase.
	Table ledger.Table
	Input clearing.Input

	MatchedCount  int // matched and selected for clearing
	ExcludedCount int
	PostedCount   int
	FailedCount   int

	// Err records an entity-level failure (conversion, matching); other
	// entities keep processing.
	Err error
}

// Result is the outcome of one full clearing run.
type Result struct {
	RunID    string
	DryRun   bool
	Started  time.Time
	Finished time.Time
	Outcomes map[string]*EntityOutcome
}

// Options controls a clearing run.
type Options struct {
	DryRun bool
	// Entities restricts the run to the given entity codes (empty = all).
	Entities []string
}

// Service wires the clearing pipeline together.
type Service struct {
	cfg       *config.Config
	rules     rules.Set
	cal       *fiscal.Calendar
	engine    *matching.Engine
	extractor Extractor
	poster    Poster
	notifier  Notifier
	store     storage.Repository // nil disables run history
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a clearing run service. The store and notifier are
// optional; a nil store disables run history, a nil notifier disables user
// notifications.
func NewService(
	cfg *config.Config,
	ruleSet rules.Set,
	cal *fiscal.Calendar,
	extractor Extractor,
	poster Poster,
	notifier Notifier,
	store storage.Repository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		rules:     ruleSet,
		cal:       cal,
		engine:    matching.NewEngine(logger),
		extractor: extractor,
		poster:    poster,
		notifier:  notifier,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one clearing run over all configured entities.
//
// Entity-level failures (a broken export, a conversion error) are recorded
// on the entity's outcome and do not stop the run. A configuration error in
// the matching rules aborts immediately: a silently skipped account would
// leave its items unreconciled with nobody noticing.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{
		RunID:    uuid.NewString(),
		DryRun:   opts.DryRun,
		Started:  s.now(),
		Outcomes: make(map[string]*EntityOutcome),
	}

	entities := s.selectEntities(opts.Entities)
	if len(entities) == 0 {
		return nil, rules.ErrNoActiveEntity
	}

	states := NewStates(entities)
	for _, entity := range entities {
		result.Outcomes[entity] = &EntityOutcome{
			Entity:  entity,
			Country: s.rules[entity].Country,
		}
	}

	s.logger.Info("Starting clearing run", "run_id", result.RunID, "entities", len(entities), "dry_run", opts.DryRun)

	raw := s.exportPhase(ctx, entities, states)

	if err := s.processPhase(entities, states, raw, result); err != nil {
		return nil, err
	}

	s.clearingPhase(ctx, entities, states, result)

	s.reportPhase(entities, states, result)
	s.notifyPhase(ctx, entities, states, result)

	for _, entity := range entities {
		result.Outcomes[entity].State = states.Get(entity)
	}
	result.Finished = s.now()

	if err := s.persist(result); err != nil {
		s.logger.Error("Failed to persist run history", "error", err)
	}

	return result, nil
}

func (s *Service) selectEntities(filter []string) []string {
	var entities []string
	if len(filter) == 0 {
		entities = s.rules.Entities()
	} else {
		for _, e := range filter {
			if _, ok := s.rules[e]; ok {
				entities = append(entities, e)
			} else {
				s.logger.Warn("Requested entity has no active clearing rules", "entity", e)
			}
		}
	}
	sort.Strings(entities)
	return entities
}

// exportPhase pulls the raw open-item exports, one entity at a time. The
// external system holds a single session, so this phase is sequential.
func (s *Service) exportPhase(ctx context.Context, entities []string, states *States) map[string]string {
	raw := make(map[string]string, len(entities))

	for _, entity := range entities {
		accounts := s.rules[entity].ActiveAccounts()
		sort.Strings(accounts)

		text, err := s.extractor.Export(ctx, entity, accounts)
		switch {
		case errors.Is(err, ErrNoOpenItems):
			s.logger.Warn("No open items found on any selected account", "entity", entity)
			states.SetNoOpenItems(entity, true)
		case err != nil:
			s.logger.Error("Open-item export failed", "entity", entity, "error", err)
		default:
			states.SetExported(entity, true)
			raw[entity] = text
		}
	}

	return raw
}

// processPhase converts, matches and builds clearing input per entity.
// Entities are independent once the raw text is in hand, so the passes run
// concurrently, each over its own table.
func (s *Service) processPhase(entities []string, states *States, raw map[string]string, result *Result) error {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		configErr error
	)

	for _, entity := range entities {
		st := states.Get(entity)
		if st.NoOpenItems {
			s.logger.Warn("Skipping entity: no open items", "entity", entity)
			continue
		}
		if !st.Exported {
			s.logger.Warn("Skipping entity: open-item export failed", "entity", entity)
			continue
		}

		wg.Add(1)
		go func(entity, text string) {
			defer wg.Done()

			outcome := result.Outcomes[entity]
			err := s.processEntity(entity, text, outcome)

			var cfgErr *matching.ConfigError
			if errors.As(err, &cfgErr) {
				mu.Lock()
				if configErr == nil {
					configErr = err
				}
				mu.Unlock()
				return
			}
			outcome.Err = err
		}(entity, raw[entity])
	}

	wg.Wait()
	return configErr
}

func (s *Service) processEntity(entity, text string, outcome *EntityOutcome) error {
	s.logger.Info("Processing open-item data", "entity", entity)

	table, err := ledger.Convert(text, entity)
	if err != nil {
		s.logger.Error("Conversion failed", "entity", entity, "error", err)
		return err
	}

	matched, err := s.engine.FindMatches(table, s.rules, entity)
	if err != nil {
		s.logger.Error("Matching failed", "entity", entity, "error", err)
		return err
	}

	outcome.Table = matched
	for i := range matched {
		if matched[i].Excluded {
			outcome.ExcludedCount++
		}
	}

	if !matched.AnyMatched() {
		s.logger.Info("No matches were found", "entity", entity)
		return nil
	}

	input, total := clearing.Build(matched, entity)
	outcome.Input = input
	outcome.MatchedCount = total

	s.logger.Info("Clearing input generated", "entity", entity, "items", total)
	return nil
}

// clearingPhase submits each account/currency group for posting and writes
// the outcome back onto the originating rows.
func (s *Service) clearingPhase(ctx context.Context, entities []string, states *States, result *Result) {
	day := s.now()
	clearingDate := s.cal.ClearingDate(day)
	period := fiscal.ClearingPeriod(day, clearingDate)

	for _, entity := range entities {
		outcome := result.Outcomes[entity]
		if len(outcome.Input) == 0 {
			if outcome.Table != nil {
				s.logger.Info("Skipping account clearing: no items matched", "entity", entity)
			}
			continue
		}

		s.logger.Info("Clearing open items", "entity", entity, "clearing_date", ledger.FormatDate(clearingDate), "period", period)

		accounts := make([]string, 0, len(outcome.Input))
		for acc := range outcome.Input {
			accounts = append(accounts, acc)
		}
		sort.Strings(accounts)

		for _, account := range accounts {
			currencies := make([]string, 0, len(outcome.Input[account]))
			for curr := range outcome.Input[account] {
				currencies = append(currencies, curr)
			}
			sort.Strings(currencies)

			for _, curr := range currencies {
				s.postGroup(ctx, entity, account, curr, clearingDate, period, outcome, result.DryRun)
			}
		}

		states.SetCleared(entity, true)
	}
}

func (s *Service) postGroup(ctx context.Context, entity, account, curr string, clearingDate time.Time, period int, outcome *EntityOutcome, dryRun bool) {
	group := outcome.Input[account][curr]
	s.logger.Info("Posting clearing group", "entity", entity, "account", account, "currency", curr, "items", len(group.Indexes))

	if dryRun {
		for _, idx := range group.Indexes {
			outcome.Table[idx].Message = msgDryRun
		}
		return
	}

	postingNumber, err := s.poster.ClearItems(ctx, PostRequest{
		Entity:       entity,
		Account:      account,
		Currency:     curr,
		ClearingDate: clearingDate,
		Period:       period,
		Group:        group,
	})
	if err != nil {
		// permission and generic posting failures alike: record on the
		// rows, keep going with the next group
		s.logger.Error("Posting failed", "entity", entity, "account", account, "currency", curr, "error", err)
		for _, idx := range group.Indexes {
			outcome.Table[idx].Message = msgClearFailure + err.Error()
		}
		outcome.FailedCount += len(group.Indexes)
		return
	}

	s.logger.Info("Items posted", "entity", entity, "account", account, "posting_number", postingNumber)
	for _, idx := range group.Indexes {
		outcome.Table[idx].PostingNumber = postingNumber
		outcome.Table[idx].Message = msgCleared
	}
	outcome.PostedCount += len(group.Indexes)
}

// reportPhase writes the per-entity xlsx reports.
func (s *Service) reportPhase(entities []string, states *States, result *Result) {
	if s.cfg.Reports.LocalDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.Reports.LocalDir, 0o755); err != nil {
		s.logger.Error("Failed to create report directory", "error", err)
		return
	}

	for _, entity := range entities {
		st := states.Get(entity)
		if st.NoOpenItems {
			s.logger.Warn("Report skipped: no open items found", "entity", entity)
			continue
		}
		if !st.Exported || result.Outcomes[entity].Table == nil {
			s.logger.Warn("Report skipped: no processed data", "entity", entity)
			continue
		}

		name := config.ExpandName(s.cfg.Reports.Name, entity, result.Outcomes[entity].Country)
		path := filepath.Join(s.cfg.Reports.LocalDir, name)

		if err := report.WriteWorkbook(path, s.cfg.Reports.SheetName, result.Outcomes[entity].Table, entity); err != nil {
			s.logger.Error("Failed to write report", "entity", entity, "error", err)
			continue
		}
		s.logger.Info("Report written", "entity", entity, "path", path)
	}
}

// notifyPhase composes and sends per-user summaries.
func (s *Service) notifyPhase(ctx context.Context, entities []string, states *States, result *Result) {
	if s.notifier == nil || !s.cfg.Notifications.Send {
		s.logger.Warn("Sending of notifications to users is disabled")
		return
	}

	tables := make(map[string]ledger.Table)
	for _, entity := range entities {
		if t := result.Outcomes[entity].Table; t != nil {
			tables[entity] = t
		}
	}

	subject := s.cfg.Notifications.Subject
	if subject == "" {
		subject = "GL account clearing summary"
	}
	subject = fmt.Sprintf("%s (%s)", subject, s.now().Format("02-Jan-2006"))

	for _, user := range s.cfg.Notifications.Users {
		owned := intersect(user.Entities, entities)
		if len(owned) == 0 {
			s.logger.Warn("Notification not sent: none of the user's entities was processed", "user", user.Name)
			continue
		}
		if !user.Send {
			s.logger.Warn("Notification not sent: user excluded by settings", "user", user.Name)
			continue
		}

		// entities that had nothing to clear carry no summary rows
		var withItems []string
		for _, e := range owned {
			if !states.Get(e).NoOpenItems {
				withItems = append(withItems, e)
			}
		}

		body := report.NotificationBody(user.Name, s.reportLocation(), report.Summarize(tables, withItems))

		if err := s.notifier.Send(ctx, user.Email, subject, body); err != nil {
			s.logger.Error("Failed to send notification", "user", user.Name, "error", err)
		}
	}
}

func (s *Service) reportLocation() string {
	if s.cfg.Reports.NetDir == "" {
		return s.cfg.Reports.LocalDir
	}
	return filepath.Join(s.cfg.Reports.NetDir, s.now().Format(s.cfg.Reports.NetSubdirFormat))
}

// persist records the run and its per-entity outcomes in the run history.
func (s *Service) persist(result *Result) error {
	if s.store == nil {
		return nil
	}

	run := &storage.ClearingRun{
		ID:          result.RunID,
		StartedAt:   result.Started,
		FinishedAt:  result.Finished,
		Status:      storage.RunStatusCompleted,
		DryRun:      result.DryRun,
		EntityCount: len(result.Outcomes),
	}

	for _, outcome := range result.Outcomes {
		run.ItemCount += len(outcome.Table)
		run.MatchedCount += outcome.MatchedCount
		run.PostedCount += outcome.PostedCount
		run.FailedCount += outcome.FailedCount
	}
	if err := s.store.SaveRun(run); err != nil {
		return err
	}

	for _, entity := range sortedKeys(result.Outcomes) {
		outcome := result.Outcomes[entity]
		res := &storage.EntityResult{
			RunID:         result.RunID,
			Entity:        entity,
			Country:       outcome.Country,
			Exported:      outcome.State.Exported,
			Cleared:       outcome.State.Cleared,
			NoOpenItems:   outcome.State.NoOpenItems,
			ItemCount:     len(outcome.Table),
			MatchedCount:  outcome.MatchedCount,
			ExcludedCount: outcome.ExcludedCount,
			PostedCount:   outcome.PostedCount,
			FailedCount:   outcome.FailedCount,
		}
		if outcome.Err != nil {
			res.Message = outcome.Err.Error()
		}
		if err := s.store.SaveEntityResult(res); err != nil {
			return err
		}
	}
	return nil
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(m map[string]*EntityOutcome) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
