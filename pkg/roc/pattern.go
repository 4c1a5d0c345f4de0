/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package roc

import (
	"sort"
	"strings"
)

const Wildcard = "*"

type PatternKind int

const (
	PatternExact PatternKind = iota
	PatternPrefix
)

// Pattern selects concrete pages, either one page by name or every page
// starting with a prefix. Prefix matching is a plain string test, so CHANNEL_1*
// selects CHANNEL_1 as well as CHANNEL_10 to CHANNEL_19.
type Pattern struct {
	Kind PatternKind
	// Name is the upper-cased page name or prefix
	Name string
}

func ParsePattern(s string) Pattern {
	s = normalize(s)
	if strings.HasSuffix(s, Wildcard) {
		return Pattern{Kind: PatternPrefix, Name: strings.TrimSuffix(s, Wildcard)}
	}
	return Pattern{Kind: PatternExact, Name: s}
}

func (p Pattern) String() string {
	if p.Kind == PatternPrefix {
		return p.Name + Wildcard
	}
	return p.Name
}

// Match reports whether the page name is selected
func (p Pattern) Match(page string) bool {
	page = normalize(page)
	if p.Kind == PatternPrefix {
		return strings.HasPrefix(page, p.Name)
	}
	return page == p.Name
}

// Resolve returns the sorted subset of pages selected by the pattern
func (p Pattern) Resolve(pages []string) ([]string, error) {
	var matched []string
	for _, page := range pages {
		if p.Match(page) {
			matched = append(matched, normalize(page))
		}
	}
	if len(matched) == 0 {
		return nil, ErrUnknownPage{Pattern: p.String()}
	}
	sort.Strings(matched)
	return matched, nil
}

// less orders patterns from the most general to the most specific, so that
// when settings are applied in this order an exact page overrides a wildcard
func (p Pattern) less(o Pattern) bool {
	if p.Kind != o.Kind {
		return p.Kind == PatternPrefix
	}
	if len(p.Name) != len(o.Name) {
		return len(p.Name) < len(o.Name)
	}
	return p.Name < o.Name
}
