package training

import (
	"strings"

	"github.com/crewhq/brigade/core/quiz"
)

// ShiftKey identifies one slot of the training program. Keys are persisted
// in schedule maps, so they are stable identifiers, not display strings.
type ShiftKey string

const (
	ShiftFollow  ShiftKey = "follow"
	ShiftRev1    ShiftKey = "rev1"
	ShiftRev2    ShiftKey = "rev2"
	ShiftRev3    ShiftKey = "rev3"
	ShiftRev4    ShiftKey = "rev4"
	ShiftFoodRun ShiftKey = "foodrun"
	ShiftCert    ShiftKey = "cert"
)

// AllShiftKeys lists every shift in program order, certification last.
var AllShiftKeys = []ShiftKey{
	ShiftFollow, ShiftRev1, ShiftRev2, ShiftRev3, ShiftRev4, ShiftFoodRun, ShiftCert,
}

// RequiredShiftKeys are the shifts counted toward certification progress.
// The cert shift is the terminal evaluation, not part of the denominator.
var RequiredShiftKeys = AllShiftKeys[:6]

type ShiftInfo struct {
	Key   ShiftKey `json:"key"`
	Label string   `json:"label"`
	// TestKeywords match against lowercased test titles to bind the
	// shift to the official tests it requires.
	TestKeywords []string `json:"-"`
}

var ShiftMeta = map[ShiftKey]ShiftInfo{
	ShiftFollow:  {Key: ShiftFollow, Label: "Follow Shift"},
	ShiftRev1:    {Key: ShiftRev1, Label: "Reverse Shift 1", TestKeywords: []string{"steak"}},
	ShiftRev2:    {Key: ShiftRev2, Label: "Reverse Shift 2", TestKeywords: []string{"bar", "beer"}},
	ShiftRev3:    {Key: ShiftRev3, Label: "Reverse Shift 3", TestKeywords: []string{"wine"}},
	ShiftRev4:    {Key: ShiftRev4, Label: "Reverse Shift 4", TestKeywords: []string{"soup"}},
	ShiftFoodRun: {Key: ShiftFoodRun, Label: "Food Run Shift"},
	ShiftCert:    {Key: ShiftCert, Label: "Certification Shift"},
}

func IsValidShiftKey(key ShiftKey) bool {
	_, ok := ShiftMeta[key]
	return ok
}

func ShiftLabel(key ShiftKey) string {
	if info, ok := ShiftMeta[key]; ok {
		return info.Label
	}
	return string(key)
}

// shiftTests binds each shift to the official tests it gates on. Resolved
// once at startup against the test catalog so a catalog rename only needs
// a keyword to keep matching.
var shiftTests = ResolveShiftTests(quiz.Catalog)

// ResolveShiftTests matches shift keywords against test titles and returns
// the shift→tests binding. Bonus tests never gate a shift.
func ResolveShiftTests(catalog []quiz.Test) map[ShiftKey][]string {
	bindings := make(map[ShiftKey][]string, len(ShiftMeta))
	for _, key := range AllShiftKeys {
		info := ShiftMeta[key]
		if len(info.TestKeywords) == 0 {
			continue
		}
		for _, tst := range catalog {
			if tst.Bonus {
				continue
			}
			title := strings.ToLower(tst.Title)
			for _, kw := range info.TestKeywords {
				if strings.Contains(title, kw) {
					bindings[key] = append(bindings[key], tst.ID)
					break
				}
			}
		}
	}
	return bindings
}

// RequiredTests returns the official test IDs gating a shift, in catalog
// order. Most shifts have none.
func RequiredTests(key ShiftKey) []string {
	return shiftTests[key]
}
