package device

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var videoNode = regexp.MustCompile(`^/dev/video(\d+)$`)

// globVideo is swapped in tests.
var globVideo = func() ([]string, error) { return filepath.Glob(videoPrefix + "*") }

// Discover lists V4L2 nodes sorted by number followed by the primary screen.
func Discover(ctx context.Context) ([]Info, error) {
	matches, err := globVideo()
	if err != nil {
		return nil, fmt.Errorf("scan devices: %w", err)
	}
	nodes := matches[:0]
	for _, m := range matches {
		if videoNode.MatchString(m) {
			nodes = append(nodes, m)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return deviceNumber(nodes[i]) < deviceNumber(nodes[j])
	})
	out := make([]Info, 0, len(nodes)+1)
	for _, n := range nodes {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		out = append(out, Info{URI: n, Name: fmt.Sprintf("Camera %d", deviceNumber(n))})
	}
	out = append(out, Info{URI: screenScheme + "0", Name: "Screen 0"})
	return out, nil
}

func deviceNumber(path string) int {
	m := videoNode.FindStringSubmatch(path)
	if len(m) < 2 {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}
