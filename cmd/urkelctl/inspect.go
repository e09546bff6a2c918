package main

import (
	"context"
	"fmt"

	"github.com/urkeldb/urkeldb"
	"github.com/urkeldb/urkeldb/internal/fsreal"
	"github.com/urkeldb/urkeldb/options"
)

func runInspect(dir string) error {
	opts := options.NewDefaultOptions().Apply(
		options.WithDataDir(dir),
		options.WithFS(fsreal.New()),
		options.WithStandalone(true),
		options.WithReadOnly(true),
	)

	s, err := urkeldb.Open(opts)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer s.Close()

	stats := s.Stats()
	fmt.Printf("root:            %x\n", s.GetRootHash())
	fmt.Printf("current segment: %d\n", stats.CurrentSegment)
	fmt.Printf("open handles:    %d\n", stats.OpenHandles)
	fmt.Printf("cache evictions: %d\n", stats.CacheEvictions)
	fmt.Printf("committed root:  %v\n", stats.HasCommittedRoot)

	checkpoints, err := s.Checkpoints(context.Background())
	if err != nil {
		return fmt.Errorf("walk history: %w", err)
	}
	fmt.Printf("checkpoints (newest first): %d\n", len(checkpoints))
	for i, m := range checkpoints {
		fmt.Printf("  [%d] meta@%d:%d root@%d:%d prev@%d:%d\n",
			i, m.Self.Segment, m.Self.Offset,
			m.RootSegment, m.RootOffset,
			m.PrevMetaSegment, m.PrevMetaOffset)
	}
	return nil
}
