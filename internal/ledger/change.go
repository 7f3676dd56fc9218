package ledger

import (
	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// Change describes a single mutation applied to an article. One Change maps
// to one audit row.
type Change struct {
	Action   models.ArticleAction
	Floor    floor.Floor
	ToFloor  floor.Floor
	Field    string
	Quantity int
	Previous int
	New      int
	Remarks  string
}

// resolve validates f against the article's sequence and returns the
// sequence and the floor's ledger.
func resolve(a *models.Article, f floor.Floor) ([]floor.Floor, *models.FloorLedger, error) {
	seq, err := a.Floors()
	if err != nil {
		return nil, nil, newError(KindUnknownLinkingType, "", 0, 0, "article %d: %v", a.ID, err)
	}
	if floor.Index(seq, f) < 0 {
		return nil, nil, newError(KindInvalidFloor, f, 0, 0,
			"floor %q is not part of the %s sequence", string(f), a.LinkingType)
	}
	return seq, a.Ledger(f), nil
}

func resolveInspection(a *models.Article, f floor.Floor) ([]floor.Floor, *models.FloorLedger, error) {
	seq, l, err := resolve(a, f)
	if err != nil {
		return nil, nil, err
	}
	if !f.IsInspection() {
		return nil, nil, newError(KindInvalidFloorForQuality, f, 0, 0,
			"quality categories can only be recorded on Checking or Final Checking, not %s", f.Label())
	}
	return seq, l, nil
}
