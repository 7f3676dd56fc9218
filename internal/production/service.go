// Package production runs floor operations against stored articles: load,
// apply the ledger operation, repair, save, then emit audit rows and update
// the order projection.
package production

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"textile-backend/internal/audit"
	"textile-backend/internal/floor"
	"textile-backend/internal/ledger"
	"textile-backend/internal/models"
)

type Service struct {
	articles ArticleStore
	orders   OrderStore
	sink     audit.Sink
	log      *zap.Logger
	now      func() time.Time
}

func NewService(articles ArticleStore, orders OrderStore, sink audit.Sink, log *zap.Logger) *Service {
	return &Service{
		articles: articles,
		orders:   orders,
		sink:     sink,
		log:      log,
		now:      time.Now,
	}
}

// Result is what every floor operation returns to its caller.
type Result struct {
	OperationID string              `json:"operationId"`
	Article     *models.Article     `json:"article"`
	Outcome     *ledger.Outcome     `json:"outcome"`
	Corrections []ledger.Correction `json:"corrections,omitempty"`
}

type CreateArticleInput struct {
	ArticleNumber   string            `json:"articleNumber"`
	PlannedQuantity int               `json:"plannedQuantity"`
	LinkingType     floor.LinkingType `json:"linkingType"`
	MachineID       *uint             `json:"machineId"`
	Remarks         string            `json:"remarks"`
}

func (s *Service) CreateOrder(ctx context.Context, orderNumber, buyer string) (*models.ProductionOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, fmt.Errorf("%w: order number is required", ErrInvalidInput)
	}
	o := &models.ProductionOrder{OrderNumber: orderNumber, BuyerName: strings.TrimSpace(buyer)}
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info("production order created", zap.Uint("order_id", o.ID), zap.String("order_number", o.OrderNumber))
	return o, nil
}

func (s *Service) CreateArticle(ctx context.Context, orderID uint, in CreateArticleInput, actor audit.Actor) (*Result, error) {
	ok, err := s.orders.OrderExists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}
	if strings.TrimSpace(in.ArticleNumber) == "" {
		return nil, fmt.Errorf("%w: article number is required", ErrInvalidInput)
	}
	lt, err := floor.ParseLinkingType(string(in.LinkingType))
	if err != nil {
		return nil, &ledger.Error{Kind: ledger.KindUnknownLinkingType, Msg: err.Error()}
	}

	a := &models.Article{
		OrderID:         orderID,
		ArticleNumber:   strings.TrimSpace(in.ArticleNumber),
		PlannedQuantity: in.PlannedQuantity,
		LinkingType:     lt,
		MachineID:       in.MachineID,
		Remarks:         in.Remarks,
	}
	changes, err := ledger.InitArticle(a)
	if err != nil {
		return nil, err
	}
	if err := s.articles.Create(ctx, a); err != nil {
		return nil, err
	}

	opID := audit.NewOperationID()
	s.appendLogs(ctx, a, audit.BuildEntries(a, changes, actor, opID))
	s.project(ctx, a)
	s.log.Info("article created",
		zap.Uint("article_id", a.ID),
		zap.Uint("order_id", a.OrderID),
		zap.String("linking_type", string(a.LinkingType)),
		zap.Int("planned", a.PlannedQuantity))

	return &Result{
		OperationID: opID,
		Article:     a,
		Outcome:     &ledger.Outcome{CurrentFloor: a.CurrentFloor, PreviousFloor: a.CurrentFloor, Status: a.Status},
	}, nil
}

func (s *Service) GetArticle(ctx context.Context, orderID, articleID uint) (*models.Article, error) {
	return s.load(ctx, orderID, articleID)
}

// ProgressInput is an operator's completed-quantity report.
type ProgressInput struct {
	Completed int
	Defects   *int
	MachineID *uint
	Remarks   *string
}

func (s *Service) UpdateProgress(ctx context.Context, orderID, articleID uint, f floor.Floor, in ProgressInput, actor audit.Actor) (*Result, error) {
	return s.apply(ctx, "updateProgress", orderID, articleID, f, actor, func(a *models.Article) (*ledger.Outcome, error) {
		out, err := ledger.UpdateProgress(a, f, ledger.ProgressUpdate{Completed: in.Completed, Defects: in.Defects}, s.now())
		if err != nil {
			return nil, err
		}
		if in.MachineID != nil {
			a.MachineID = in.MachineID
		}
		if in.Remarks != nil {
			a.Remarks = *in.Remarks
		}
		return out, nil
	})
}

func (s *Service) Transfer(ctx context.Context, orderID, articleID uint, f floor.Floor, quantity *int, actor audit.Actor) (*Result, error) {
	return s.apply(ctx, "transfer", orderID, articleID, f, actor, func(a *models.Article) (*ledger.Outcome, error) {
		return ledger.Transfer(a, f, quantity, s.now())
	})
}

func (s *Service) QualityInspection(ctx context.Context, orderID, articleID uint, f floor.Floor, in ledger.QualityInput, actor audit.Actor) (*Result, error) {
	return s.apply(ctx, "qualityInspection", orderID, articleID, f, actor, func(a *models.Article) (*ledger.Outcome, error) {
		return ledger.QualityInspection(a, f, in, s.now())
	})
}

func (s *Service) ShiftM2Items(ctx context.Context, orderID, articleID uint, f floor.Floor, in ledger.ShiftInput, actor audit.Actor) (*Result, error) {
	return s.apply(ctx, "shiftM2Items", orderID, articleID, f, actor, func(a *models.Article) (*ledger.Outcome, error) {
		return ledger.ShiftM2(a, f, in, s.now())
	})
}

func (s *Service) WriteOffDefects(ctx context.Context, orderID, articleID uint, f floor.Floor, actor audit.Actor) (*Result, error) {
	return s.apply(ctx, "writeOffDefects", orderID, articleID, f, actor, func(a *models.Article) (*ledger.Outcome, error) {
		return ledger.WriteOff(a, f, s.now())
	})
}

func (s *Service) ConfirmFinalQuality(ctx context.Context, orderID, articleID uint, f floor.Floor, actor audit.Actor) (*Result, error) {
	return s.apply(ctx, "confirmFinalQuality", orderID, articleID, f, actor, func(a *models.Article) (*ledger.Outcome, error) {
		return ledger.ConfirmFinal(a, f, s.now())
	})
}

// RepairReport is the result of an explicit corruption check.
type RepairReport struct {
	ArticleID   uint                `json:"articleId"`
	DryRun      bool                `json:"dryRun"`
	Saved       bool                `json:"saved"`
	Corrections []ledger.Correction `json:"corrections"`
}

// FixDataCorruption runs the corruption detector on one article. With dryRun
// the report is computed on a copy and nothing is written.
func (s *Service) FixDataCorruption(ctx context.Context, articleID uint, dryRun bool, actor audit.Actor) (*RepairReport, error) {
	a, err := s.articles.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	report := &RepairReport{ArticleID: articleID, DryRun: dryRun}
	if dryRun {
		report.Corrections = ledger.Diagnose(a)
		return report, nil
	}

	report.Corrections = s.repair(a)
	if len(report.Corrections) == 0 {
		return report, nil
	}
	if err := s.articles.Save(ctx, a); err != nil {
		return nil, err
	}
	report.Saved = true
	s.appendLogs(ctx, a, audit.BuildRepairEntries(a, report.Corrections, actor, audit.NewOperationID()))
	return report, nil
}

// RepairAll runs FixDataCorruption over every stored article, at most
// concurrency at a time. Articles that fail are reported in the error and
// do not stop the others.
func (s *Service) RepairAll(ctx context.Context, dryRun bool, concurrency int, actor audit.Actor) ([]RepairReport, error) {
	ids, err := s.articles.ArticleIDs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		reports = make([]RepairReport, 0, len(ids))
		failed  []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))
	for _, id := range ids {
		g.Go(func() error {
			r, err := s.FixDataCorruption(gctx, id, dryRun, actor)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, fmt.Sprintf("article %d: %v", id, err))
				return nil
			}
			if len(r.Corrections) > 0 {
				reports = append(reports, *r)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return reports, fmt.Errorf("repair failed for %d article(s): %s", len(failed), strings.Join(failed, "; "))
	}
	return reports, nil
}

func (s *Service) load(ctx context.Context, orderID, articleID uint) (*models.Article, error) {
	a, err := s.articles.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if a.OrderID != orderID {
		return nil, fmt.Errorf("article %d in order %d: %w", articleID, orderID, ErrArticleNotFound)
	}
	return a, nil
}

func (s *Service) apply(ctx context.Context, op string, orderID, articleID uint, f floor.Floor, actor audit.Actor,
	fn func(a *models.Article) (*ledger.Outcome, error)) (*Result, error) {
	a, err := s.load(ctx, orderID, articleID)
	if err != nil {
		return nil, err
	}

	out, err := fn(a)
	if err != nil {
		s.log.Debug("floor operation rejected",
			zap.String("op", op),
			zap.Uint("article_id", articleID),
			zap.String("floor", string(f)),
			zap.Error(err))
		return nil, err
	}

	corrections := s.repair(a)
	if err := s.articles.Save(ctx, a); err != nil {
		return nil, err
	}

	opID := audit.NewOperationID()
	entries := audit.BuildEntries(a, out.Changes, actor, opID)
	entries = append(entries, audit.BuildRepairEntries(a, corrections, actor, opID)...)
	s.appendLogs(ctx, a, entries)

	if out.Advanced() {
		s.project(ctx, a)
	}
	// Repair may have moved these.
	out.CurrentFloor, out.Progress, out.Status = a.CurrentFloor, a.Progress, a.Status

	s.log.Info("floor operation applied",
		zap.String("op", op),
		zap.String("operation_id", opID),
		zap.Uint("article_id", a.ID),
		zap.String("floor", string(f)),
		zap.String("current_floor", string(a.CurrentFloor)),
		zap.Int("progress", a.Progress),
		zap.Int("transfers", len(out.Transfers)))

	return &Result{OperationID: opID, Article: a, Outcome: out, Corrections: corrections}, nil
}

func (s *Service) repair(a *models.Article) []ledger.Correction {
	corrections := ledger.RepairLedgers(a)
	for _, c := range corrections {
		s.log.Warn("ledger corrected",
			zap.Uint("article_id", a.ID),
			zap.String("floor", string(c.Floor)),
			zap.String("field", c.Field),
			zap.Int("previous", c.Previous),
			zap.Int("new", c.New),
			zap.String("reason", c.Reason))
	}
	return corrections
}

func (s *Service) appendLogs(ctx context.Context, a *models.Article, entries []models.ArticleLog) {
	if len(entries) == 0 {
		return
	}
	if err := s.sink.Append(ctx, entries); err != nil {
		s.log.Error("article log append failed",
			zap.Uint("article_id", a.ID),
			zap.Int("entries", len(entries)),
			zap.Error(err))
	}
}

func (s *Service) project(ctx context.Context, a *models.Article) {
	if err := s.orders.ProjectFloor(ctx, a.OrderID, a.CurrentFloor); err != nil {
		s.log.Error("order projection failed",
			zap.Uint("order_id", a.OrderID),
			zap.String("floor", string(a.CurrentFloor)),
			zap.Error(err))
	}
}
