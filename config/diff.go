package config

import (
	"encoding/json"
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"go.viam.com/smoother/smoother"
)

// A Diff is the difference between two configs, left and right
// where left is usually old and right is new. So the diff is the
// changes from left to right.
type Diff struct {
	Left, Right *Config

	Added    []smoother.Channel
	Modified []smoother.Channel
	Removed  []smoother.Channel

	ChannelsEqual bool
	TimingEqual   bool
	DebugEqual    bool
	PrettyDiff    string
}

// DiffConfigs returns the difference between the two given configs
// from left to right.
func DiffConfigs(left, right Config) (_ *Diff, err error) {
	pretty, err := prettyDiff(left, right)
	if err != nil {
		return nil, err
	}

	diff := Diff{
		Left:       &left,
		Right:      &right,
		PrettyDiff: pretty,
	}

	// If left contains something right does not => removed
	// If right contains something left does not => added
	// If both contain it and they are not equal => modified
	diff.ChannelsEqual = !diffChannels(left.Channels, right.Channels, &diff)
	diff.TimingEqual = left.PollInterval == right.PollInterval &&
		left.TickInterval == right.TickInterval &&
		left.MeasureElapsed == right.MeasureElapsed
	diff.DebugEqual = left.Debug == right.Debug
	return &diff, nil
}

func prettyDiff(left, right Config) (string, error) {
	leftMd, err := json.MarshalIndent(left, "", " ")
	if err != nil {
		return "", err
	}
	rightMd, err := json.MarshalIndent(right, "", " ")
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(leftMd), string(rightMd), true)
	filteredDiffs := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		filteredDiffs = append(filteredDiffs, d)
	}
	return dmp.DiffPrettyText(filteredDiffs), nil
}

// String returns a pretty version of the diff.
func (diff *Diff) String() string {
	return diff.PrettyDiff
}

// Empty reports whether nothing the driver cares about changed.
func (diff *Diff) Empty() bool {
	return diff.ChannelsEqual && diff.TimingEqual && diff.DebugEqual
}

func diffChannels(left, right []smoother.Channel, diff *Diff) bool {
	leftIndex := make(map[string]int)
	leftM := make(map[string]smoother.Channel)
	for idx, l := range left {
		leftM[l.Name] = l
		leftIndex[l.Name] = idx
	}

	var different bool
	for _, r := range right {
		l, ok := leftM[r.Name]
		delete(leftM, r.Name)
		if ok {
			if l != r {
				diff.Modified = append(diff.Modified, r)
				different = true
			}
			continue
		}
		diff.Added = append(diff.Added, r)
		different = true
	}

	removed := make([]int, 0, len(leftM))
	for k := range leftM {
		removed = append(removed, leftIndex[k])
		different = true
	}
	sort.Ints(removed)
	for _, idx := range removed {
		diff.Removed = append(diff.Removed, left[idx])
	}
	return different
}
