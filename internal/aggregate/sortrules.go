package aggregate

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	sortKeyDefaultWMTS = 99
	sortKeyDefault     = 100
	sortKeyNameless    = 101
)

// SortRule assigns an explicit sort key to flat rows whose protocol is in
// Types and whose name matches any of the Names patterns.
type SortRule struct {
	Index int      `json:"index"`
	Types []string `json:"types"`
	Names []string `json:"names"`

	patterns []*regexp.Regexp
}

// LoadSortRules reads and compiles an ordered rule file. Patterns are
// matched case-insensitively. Rules come back sorted by index ascending.
func LoadSortRules(path string) ([]SortRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sort rules: %w", err)
	}
	var rules []SortRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse sort rules %s: %w", path, err)
	}
	for i := range rules {
		for _, name := range rules[i].Names {
			re, err := regexp.Compile("(?i)" + name)
			if err != nil {
				return nil, fmt.Errorf("sort rule %d pattern %q: %w", rules[i].Index, name, err)
			}
			rules[i].patterns = append(rules[i].patterns, re)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Index < rules[j].Index })
	return rules, nil
}

// SortLayers buckets rows by their sorting value and concatenates the
// buckets in ascending key order. Relative order within a bucket is
// preserved. Rules that match nothing are logged for operability.
func SortLayers(layers []FlatLayer, rules []SortRule, logger *zap.Logger) []FlatLayer {
	buckets := map[int][]FlatLayer{}
	for _, layer := range layers {
		key := sortingValue(layer, rules)
		buckets[key] = append(buckets[key], layer)
	}

	for _, rule := range rules {
		if len(buckets[rule.Index]) == 0 {
			logger.Info("no layers matched sorting rule",
				zap.Int("index", rule.Index),
				zap.Strings("names", rule.Names))
		}
	}

	keys := lo.Keys(buckets)
	sort.Ints(keys)
	result := make([]FlatLayer, 0, len(layers))
	for _, key := range keys {
		result = append(result, buckets[key]...)
	}
	return result
}

func sortingValue(layer FlatLayer, rules []SortRule) int {
	if layer.Name == "" {
		return sortKeyNameless
	}
	name := strings.ToLower(layer.Name)
	shortProtocol := layer.ServiceProtocol.ShortName()
	for _, rule := range rules {
		if !lo.Contains(rule.Types, shortProtocol) {
			continue
		}
		for _, re := range rule.patterns {
			if re.MatchString(name) {
				return rule.Index
			}
		}
	}
	if shortProtocol == "wmts" {
		return sortKeyDefaultWMTS
	}
	return sortKeyDefault
}
