package pathname

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"gitlab.com/tozd/go/errors"
)

// localeTagSwaps maps recognized Simplified locale-tag spellings to
// their Traditional counterpart, spelling for spelling. The reverse
// table is derived by inversion. Separator style (hyphen vs
// underscore) is matched outside the table, so only the tag spellings
// themselves live here.
var localeTagSwaps = map[string]string{
	"zh_CN":   "zh_TW",
	"zh-CN":   "zh-TW",
	"zh_cn":   "zh_tw",
	"zh-cn":   "zh-tw",
	"zh_Hans": "zh_Hant",
	"zh-Hans": "zh-Hant",
	"zh_hans": "zh_hant",
	"zh-hans": "zh-hant",
	"CN":      "TW",
	"cn":      "tw",
	"CHS":     "CHT",
	"chs":     "cht",
	"SC":      "TC",
	"sc":      "tc",
}

var reverseTagSwaps = func() map[string]string {
	m := make(map[string]string, len(localeTagSwaps))
	for k, v := range localeTagSwaps {
		m[v] = k
	}
	return m
}()

// separators accepted between a basename and its locale tag
const tagSeparators = "-_."

// Namer derives output names from input paths. Given the same rule
// set and a deterministic converter, Derive is a pure function of its
// arguments; the batch layer relies on that for counterpart detection
// and for collision safety under parallel execution.
type Namer struct {
	rules         *dict.RuleSet
	converter     variant.Converter
	unify         bool
	translateDirs bool
}

// New creates a Namer for the rule set's direction. With translateDirs
// set, Derive also translates the directory components of a path;
// in-place runs leave that to the on-disk rename pass instead.
func New(rules *dict.RuleSet, converter variant.Converter, unify, translateDirs bool) *Namer {
	return &Namer{rules: rules, converter: converter, unify: unify, translateDirs: translateDirs}
}

// Direction returns the direction the namer derives for
func (n *Namer) Direction() dict.Direction {
	return n.rules.Direction
}

// suffix is the fallback directional marker appended when neither a
// locale tag nor a content translation renames the file
func (n *Namer) suffix() string {
	if n.rules.Direction == dict.Reverse {
		return "-CN"
	}
	return "-TW"
}

// Derive computes the output path for an input path. The directory
// component is preserved unless the namer was built with directory
// translation on, in which case each path element goes through
// DeriveDir as well.
func (n *Namer) Derive(ctx context.Context, path string) (string, error) {
	dir, base := filepath.Split(path)
	newBase, err := n.DeriveBase(ctx, base)
	if err != nil {
		return "", errors.Errorf("deriving name for %s: %w", path, err)
	}
	if n.translateDirs && dir != "" {
		dir, err = n.deriveDirs(ctx, dir)
		if err != nil {
			return "", errors.Errorf("deriving name for %s: %w", path, err)
		}
	}
	return dir + newBase, nil
}

// deriveDirs translates every element of a directory prefix, keeping
// separators and relative markers as they are
func (n *Namer) deriveDirs(ctx context.Context, dir string) (string, error) {
	sep := string(filepath.Separator)
	parts := strings.Split(strings.TrimSuffix(dir, sep), sep)
	for i, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		derived, err := n.DeriveDir(ctx, part)
		if err != nil {
			return "", err
		}
		parts[i] = derived
	}
	return strings.Join(parts, sep) + sep, nil
}

// DeriveBase computes the output base name for an input base name.
//
// Priority order: swap a recognized opposite-locale tag, else rename
// by translating the stem, else append the directional suffix. With
// unify set the suffix is always appended to the translated stem.
func (n *Namer) DeriveBase(ctx context.Context, base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if swapped, ok := n.swapLocaleTag(stem); ok {
		return swapped + ext, nil
	}

	translated, err := variant.Transform(ctx, stem, n.rules, n.converter)
	if err != nil {
		return "", err
	}

	if n.unify {
		return translated + n.suffix() + ext, nil
	}
	if translated != stem {
		return translated + ext, nil
	}
	return stem + n.suffix() + ext, nil
}

// DeriveDir computes the output name for a directory entry. Directory
// names carry no extension, so the whole name is the stem.
func (n *Namer) DeriveDir(ctx context.Context, name string) (string, error) {
	if swapped, ok := n.swapLocaleTag(name); ok {
		return swapped, nil
	}
	translated, err := variant.Transform(ctx, name, n.rules, n.converter)
	if err != nil {
		return "", errors.Errorf("deriving directory name for %s: %w", name, err)
	}
	return translated, nil
}

// HasTargetTag reports whether a base name already carries a locale
// tag for the direction's target locale, i.e. whether it looks like
// the output of a previous run in this direction.
func (n *Namer) HasTargetTag(base string) bool {
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	swaps := reverseTagSwaps
	if n.rules.Direction == dict.Reverse {
		swaps = localeTagSwaps
	}
	for tag := range swaps {
		if stem == tag {
			return true
		}
		for _, sep := range tagSeparators {
			if strings.HasSuffix(stem, string(sep)+tag) {
				return true
			}
		}
	}
	return false
}

// swapLocaleTag replaces a trailing source-locale tag with the target
// locale's spelling, preserving the separator. Longer tags are tried
// first so zh_CN wins over bare CN.
func (n *Namer) swapLocaleTag(stem string) (string, bool) {
	swaps := localeTagSwaps
	if n.rules.Direction == dict.Reverse {
		swaps = reverseTagSwaps
	}

	tags := make([]string, 0, len(swaps))
	for tag := range swaps {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if len(tags[i]) != len(tags[j]) {
			return len(tags[i]) > len(tags[j])
		}
		return tags[i] < tags[j]
	})

	for _, tag := range tags {
		if stem == tag {
			return swaps[tag], true
		}
		for _, sep := range tagSeparators {
			if strings.HasSuffix(stem, string(sep)+tag) {
				return stem[:len(stem)-len(tag)] + swaps[tag], true
			}
		}
	}
	return "", false
}
