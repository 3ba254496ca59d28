// Package confirm gates irreversible actions behind an operator prompt.
package confirm

import (
	"os"

	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
)

// Policy is the strictness of the confirmation prompt
type Policy int

const (
	// FewChoices shows No, the affirmative and No
	FewChoices Policy = iota
	// ManyChoices hides the affirmative among ten decoys
	ManyChoices
	// NoConfirm skips the prompt entirely
	NoConfirm
)

func (p Policy) String() string {
	switch p {
	case NoConfirm:
		return "no-confirm"
	case ManyChoices:
		return "many-choices"
	default:
		return "few-choices"
	}
}

const (
	fewAffirmative  = 1
	manyAffirmative = 7
	manyItems       = 11
	// Warning is shown under the title of every prompt
	Warning = "  THIS CAN NOT BE UNDONE."
)

// Gate resolves the policy from marker files on primary storage each time
// it is asked
type Gate struct {
	Display menu.Display
	// NoConfirmMarker and ManyConfirmMarker are absolute marker paths.
	// Only their existence matters.
	NoConfirmMarker   string
	ManyConfirmMarker string
}

// New creates a gate
func New(display menu.Display, noConfirm, manyConfirm string) *Gate {
	return &Gate{Display: display, NoConfirmMarker: noConfirm, ManyConfirmMarker: manyConfirm}
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Policy checks the no-confirm marker first, then the many-confirm marker
func (g *Gate) Policy() Policy {
	if exists(g.NoConfirmMarker) {
		return NoConfirm
	}
	if exists(g.ManyConfirmMarker) {
		return ManyChoices
	}
	return FewChoices
}

// Confirm asks the operator to approve an action titled title. It returns
// true only when the affirmative item was chosen.
func (g *Gate) Confirm(title, affirmative string) bool {
	return g.ConfirmWithHeaders([]string{title, Warning, ""}, affirmative)
}

// ConfirmWithHeaders is Confirm with caller-built headers
func (g *Gate) ConfirmWithHeaders(headers []string, affirmative string) bool {
	policy := g.Policy()
	if policy == NoConfirm {
		return true
	}

	items, want := Items(policy, affirmative)

	old := g.Display.ShowingBackButton()
	g.Display.SetShowingBackButton(false)
	defer g.Display.SetShowingBackButton(old)

	chosen := g.Display.Present(menu.Prompt{Headers: headers, Items: items})
	ok := chosen == want

	log.LogWithFields(
		log.F("policy", policy.String()),
		log.F("action", affirmative),
		log.F("confirmed", ok),
	).Debug("confirmation resolved")
	return ok
}

// Items returns the prompt items for policy and the index of the
// affirmative among them
func Items(policy Policy, affirmative string) ([]string, int) {
	if policy == ManyChoices {
		items := make([]string, manyItems)
		for i := range items {
			items[i] = "No"
		}
		items[manyAffirmative] = affirmative
		return items, manyAffirmative
	}
	return []string{"No", affirmative, "No"}, fewAffirmative
}
