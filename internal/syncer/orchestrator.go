package syncer

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/report"
	"github.com/marcw/psync/internal/sidecar"
	"github.com/marcw/psync/internal/store"
	"github.com/marcw/psync/internal/util"
	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
)

// State is the orchestrator's position in the sync pipeline.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateConnecting
	StateSchemaCheck
	StateSyncing
	StateReconciling
	StateSummarizing
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateValidating:  "validating",
	StateConnecting:  "connecting",
	StateSchemaCheck: "schema-check",
	StateSyncing:     "syncing",
	StateReconciling: "reconciling",
	StateSummarizing: "summarizing",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures one sync run.
type Options struct {
	DB           store.Config
	Owner        OwnerConfig
	Items        []*content.Item
	DryRun       bool
	CreateTables bool
	ArtifactsDir string
	ContentRoot  string // root of the content tree for sidecar writes; "" disables
	Logger       *report.EventLogger
	Progress     bool // show a progress bar when stdout is a terminal
}

// Orchestrator drives the sync pipeline: connect, ensure schema,
// per-item transactions, reconciliation, sidecar propagation,
// summary. Only a failure to establish a usable store is fatal; any
// failure inside one item's transaction is recorded and skipped over.
type Orchestrator struct {
	opts  Options
	state State
	store *store.Store
}

// NewOrchestrator builds an orchestrator for one run.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = report.NullLogger()
	}
	if opts.ArtifactsDir == "" {
		opts.ArtifactsDir = "artifacts"
	}
	return &Orchestrator{opts: opts, state: StateIdle}
}

// State returns the orchestrator's current pipeline state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the pipeline and returns the run's stats. The error is
// non-nil only for fatal conditions (bad config, unreachable store);
// item-scoped failures live in stats.Errors.
func (o *Orchestrator) Run() (*Stats, error) {
	stats := NewStats()
	start := time.Now()
	runID := uuid.NewString()

	o.state = StateValidating
	if err := o.opts.DB.Validate(); err != nil {
		return nil, err
	}

	o.state = StateConnecting
	s, err := store.Open(o.opts.DB)
	if err != nil {
		o.state = StateFailed
		return nil, err
	}
	o.store = s
	defer s.Close()

	o.state = StateSchemaCheck
	if o.opts.CreateTables || !s.HasBaselineTable() {
		util.InfoLog("Schema missing or creation forced, migrating")
		if err := s.Migrate(); err != nil {
			o.state = StateFailed
			return nil, err
		}
	}

	owner, err := o.resolveOwner()
	if err != nil {
		o.state = StateFailed
		return nil, err
	}

	o.state = StateSyncing
	itemHashes := o.syncItems(owner, stats)

	o.state = StateReconciling
	NewReconciler(s, o.opts.Logger).Run(o.opts.Items, stats, o.opts.DryRun)

	if !o.opts.DryRun && o.opts.ContentRoot != "" {
		prop := sidecar.Propagator{Root: o.opts.ContentRoot}
		if warnings := prop.Propagate(o.opts.Items, itemHashes, time.Now().UTC()); len(warnings) > 0 {
			for _, w := range warnings {
				stats.AddWarning("%s", w)
				o.opts.Logger.Log(&report.Event{
					Level:  report.LevelWarning,
					Event:  report.EventSidecar,
					Reason: w,
				})
			}
		}
	}

	o.state = StateSummarizing
	path, err := report.WriteRunSummary(o.opts.ArtifactsDir, runID, stats, o.opts.DB.Redacted(), o.opts.DryRun)
	if err != nil {
		stats.AddWarning("summary artifact not written: %v", err)
	} else {
		util.DebugLog("Run summary: %s", path)
	}

	util.InfoLog("Sync finished in %v", time.Since(start).Round(time.Millisecond))
	o.state = StateDone
	return stats, nil
}

// resolveOwner resolves the attribution account once per run. In dry
// runs a missing owner is simulated instead of created, keeping the
// store untouched.
func (o *Orchestrator) resolveOwner() (*store.User, error) {
	if o.opts.DryRun {
		var user store.User
		err := o.store.DB().Where("username = ?", ownerUsername(o.opts.Owner)).First(&user).Error
		if err != nil {
			// Simulated owner; id 0 is never written in a dry run.
			return &store.User{Username: ownerUsername(o.opts.Owner)}, nil
		}
		return &user, nil
	}
	return ResolveOwner(o.store.DB(), o.opts.Owner)
}

func ownerUsername(cfg OwnerConfig) string {
	cfg.ApplyDefaults()
	return cfg.Username
}

// syncItems runs the sequential per-item loop and returns the content
// hash computed for each successfully handled item, keyed by item id.
func (o *Orchestrator) syncItems(owner *store.User, stats *Stats) map[string]string {
	itemHashes := make(map[string]string, len(o.opts.Items))

	var bar *progressbar.ProgressBar
	if o.opts.Progress && util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		width := 40
		if w := util.GetTerminalWidth() - 40; w > 0 && w < width {
			width = w
		}
		bar = progressbar.NewOptions(len(o.opts.Items),
			progressbar.OptionSetDescription("Syncing"),
			progressbar.OptionSetWidth(width),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("items"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, item := range o.opts.Items {
		stats.TotalItems++
		if bar != nil {
			bar.Add(1)
		}

		mapper := MapperFor(item.Type)
		if mapper == nil {
			stats.AddWarning("%s: %v: %q", item.ID, util.ErrUnsupportedType, item.Type)
			continue
		}

		payload := content.NormalizePayload(item.Data)
		hash := item.Hash
		if hash == "" {
			hash = content.HashPayloadOrFallback(item.Data)
		}

		key := mapper.NaturalKey(item, payload)
		if key != "" {
			existing, err := mapper.Lookup(o.store.DB(), key)
			if err != nil {
				stats.AddError("lookup failed for %s: %v", item.ID, err)
				o.opts.Logger.LogItemError(item.ID, item.Type, err)
				continue
			}
			if IsUnchanged(existing, item, payload) {
				stats.Skipped++
				itemHashes[item.ID] = hash
				o.opts.Logger.LogItem(report.EventSkip, item.ID, item.Type, key, 0)
				continue
			}
			if o.opts.DryRun {
				stats.Processed++
				if existing == nil {
					stats.Created++
				} else {
					stats.Updated++
				}
				continue
			}
		} else if o.opts.DryRun {
			// Translation in a dry run: counted, never written.
			stats.Processed++
			continue
		}

		itemStart := time.Now()
		before := *stats
		err := o.store.Transaction(func(tx *gorm.DB) error {
			return mapper.Upsert(tx, item, payload, owner.ID, stats)
		})
		if err != nil {
			// The transaction rolled back; undo counter drift from
			// the aborted mapper.
			*stats = before
			stats.AddError("sync failed for %s: %v", item.ID, err)
			o.opts.Logger.LogItemError(item.ID, item.Type, err)
			continue
		}

		itemHashes[item.ID] = hash

		event := report.EventUpdate
		if stats.Created > before.Created {
			event = report.EventCreate
		} else if stats.Skipped > before.Skipped {
			// Unchanged translation detected inside the transaction.
			event = report.EventSkip
		}
		if event != report.EventSkip {
			stats.Processed++
		}
		if key == "" {
			reason := ""
			if len(stats.Warnings) > len(before.Warnings) {
				reason = stats.Warnings[len(stats.Warnings)-1]
			}
			o.opts.Logger.LogTranslation(item.ID, slugOf(item, payload), payload.Language(PrimaryLanguage), reason)
		} else {
			o.opts.Logger.LogItem(event, item.ID, item.Type, key, time.Since(itemStart))
		}
	}

	if bar != nil {
		bar.Finish()
	}

	return itemHashes
}
