package rendering

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// SkillGroup is one rendered skills line. An empty Label means the group is unlabeled.
type SkillGroup struct {
	Label string
	Items []string
}

// newlineMarkers maps every accepted line break to a real newline.
// Upstream model output often carries the two-character sequence \n instead of a newline.
var newlineMarkers = strings.NewReplacer("\r\n", "\n", "\r", "\n", `\n`, "\n")

// NormalizeBullets resolves a bullet source (experience description, project points,
// achievements) into ordered, trimmed, non-empty bullet strings.
func NormalizeBullets(list types.TextList) []string {
	switch list.Form {
	case types.FormString:
		return splitLines(list.Text)
	case types.FormSequence:
		return keepNonEmpty(list.Items)
	default:
		return nil
	}
}

// NormalizeSkills resolves every accepted skills shape into ordered groups.
// Groups whose items resolve to nothing are dropped.
func NormalizeSkills(set types.SkillSet) []SkillGroup {
	switch set.Form {
	case types.FormString:
		return singleGroup(splitCommas(set.Text))
	case types.FormSequence:
		return singleGroup(keepNonEmpty(set.Items))
	case types.FormGroups, types.FormKeyed:
		groups := make([]SkillGroup, 0, len(set.Categories))
		for _, category := range set.Categories {
			items := skillItems(category.Items)
			if len(items) == 0 {
				continue
			}
			groups = append(groups, SkillGroup{
				Label: strings.TrimSpace(string(category.Category)),
				Items: items,
			})
		}
		return groups
	default:
		return nil
	}
}

func skillItems(list types.TextList) []string {
	switch list.Form {
	case types.FormString:
		return splitCommas(list.Text)
	case types.FormSequence:
		return keepNonEmpty(list.Items)
	default:
		return nil
	}
}

func singleGroup(items []string) []SkillGroup {
	if len(items) == 0 {
		return nil
	}
	return []SkillGroup{{Items: items}}
}

func splitLines(text string) []string {
	return keepNonEmpty(strings.Split(newlineMarkers.Replace(text), "\n"))
}

func splitCommas(text string) []string {
	return keepNonEmpty(strings.Split(text, ","))
}

func keepNonEmpty(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
