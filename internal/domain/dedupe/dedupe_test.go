package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/campwatch/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When recording post ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id is new", func() {
				seen := d.SeenAndRecord(context.Background(), "post-1")

				Convey("Then it should return false and record the id", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the id was already seen", func() {
				d.SeenAndRecord(context.Background(), "post-1")
				seen := d.SeenAndRecord(context.Background(), "post-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording a submission id", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(context.Background(), "req-1")
			d.Unrecord(context.Background(), "req-1")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(context.Background(), "req-1"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown id does nothing", func() {
				d.Unrecord(context.Background(), "nonexistent")
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				for _, id := range []string{"post-1", "post-2", "post-3"} {
					So(d.SeenAndRecord(context.Background(), id), ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), "post-4")

				Convey("Then the oldest id is evicted and the new one recorded", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
					// post-1 was evicted, so it records as new again.
					So(d.SeenAndRecord(context.Background(), "post-1"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			const numIDs = 1000
			for i := 0; i < numIDs; i++ {
				So(d.SeenAndRecord(context.Background(), fmt.Sprintf("post-%d", i)), ShouldBeFalse)
			}

			Convey("Then all ids are recorded without eviction", func() {
				So(d.Size(), ShouldEqual, int64(numIDs))
				So(d.SeenAndRecord(context.Background(), "post-0"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10000))
		const numGoroutines = 10
		const idsPerGoroutine = 100

		Convey("When multiple goroutines record ids concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					for j := 0; j < idsPerGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("post-%d-%d", n, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all ids should be recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*idsPerGoroutine))
			})
		})
	})
}
