package source_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/campwatch/internal/adapters/source"
	"github.com/okian/campwatch/internal/domain/model"
	logging "github.com/okian/campwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func writeSample(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJSONLSource(t *testing.T) {
	Convey("Given a JSONL sample source", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		Convey("When loading a well-formed sample", func() {
			path := writeSample(t, []string{
				`{"id":"1","text":"first post","author_id":"u1","created_at":"2025-06-01T12:00:00Z"}`,
				``,
				`{"id":"2","text":"second post","author_id":"u2","_user":{"id":"u2","username":"bob"}}`,
			})
			src := source.NewJSONLSource(path)

			records, err := src.Fetch(ctx, model.Query{})

			Convey("Then it should return every record, skipping blank lines", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 2)
				So(records[0].ID, ShouldEqual, "1")
				So(records[1].Username(), ShouldEqual, "bob")
			})
		})

		Convey("When the query caps the batch size", func() {
			path := writeSample(t, []string{
				`{"id":"1","text":"a"}`,
				`{"id":"2","text":"b"}`,
				`{"id":"3","text":"c"}`,
			})
			src := source.NewJSONLSource(path)

			records, err := src.Fetch(ctx, model.Query{MaxResults: 2})

			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[1].ID, ShouldEqual, "2")
		})

		Convey("When a line is not valid JSON", func() {
			path := writeSample(t, []string{
				`{"id":"1","text":"a"}`,
				`{not json}`,
			})
			src := source.NewJSONLSource(path)

			_, err := src.Fetch(ctx, model.Query{})

			Convey("Then it should report the malformed record", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, source.ErrBadRecord), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			src := source.NewJSONLSource(filepath.Join(t.TempDir(), "missing.jsonl"))

			_, err := src.Fetch(ctx, model.Query{})

			So(err, ShouldNotBeNil)
			So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
		})
	})
}

func TestTwitterSourceAuth(t *testing.T) {
	Convey("Given twitter source construction", t, func() {
		_ = logging.Init()

		Convey("When the bearer token is missing", func() {
			_, err := source.NewTwitterSource("")

			Convey("Then it should refuse to construct", func() {
				So(err, ShouldEqual, source.ErrNoBearerToken)
			})
		})

		Convey("When the bearer token is present", func() {
			src, err := source.NewTwitterSource("token")

			So(err, ShouldBeNil)
			So(src, ShouldNotBeNil)
		})
	})
}

func TestTwitterSourceFetch(t *testing.T) {
	Convey("Given a twitter recent-search source", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		Convey("When fetching a single page", func() {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{
					"data": [
						{
							"id": "100",
							"text": "big announcement",
							"author_id": "u1",
							"created_at": "2025-06-01T12:00:00.000Z",
							"lang": "en",
							"public_metrics": {"retweet_count": 3, "reply_count": 1, "like_count": 7, "quote_count": 0},
							"entities": {"mentions": [{"username": "bob"}], "hashtags": [{"tag": "news"}]},
							"referenced_tweets": [{"id": "99", "type": "retweeted"}]
						}
					],
					"includes": {"users": [{"id": "u1", "name": "Alice", "username": "alice"}]},
					"meta": {"result_count": 1}
				}`)
			}))
			defer server.Close()

			src, err := source.NewTwitterSource("token",
				source.WithHost(server.URL),
				source.WithPageDelay(0),
			)
			So(err, ShouldBeNil)

			records, err := src.Fetch(ctx, model.Query{Text: "#news", MaxResults: 10})

			Convey("Then it should return the converted batch", func() {
				So(err, ShouldBeNil)
				So(gotAuth, ShouldEqual, "Bearer token")
				So(len(records), ShouldEqual, 1)

				rec := records[0]
				So(rec.ID, ShouldEqual, "100")
				So(rec.Text, ShouldEqual, "big announcement")
				So(rec.AuthorID, ShouldEqual, "u1")
				So(rec.Lang, ShouldEqual, "en")
				So(rec.Metrics().RetweetCount, ShouldEqual, 3)
				So(rec.MentionUsernames(), ShouldResemble, []string{"bob"})
				So(rec.HashtagTags(), ShouldResemble, []string{"news"})
				So(len(rec.References()), ShouldEqual, 1)
				So(rec.References()[0].Kind, ShouldEqual, "retweeted")
				So(rec.Username(), ShouldEqual, "alice")
			})
		})

		Convey("When results span multiple pages", func() {
			page := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				page++
				w.Header().Set("Content-Type", "application/json")
				if r.URL.Query().Get("next_token") == "" {
					fmt.Fprint(w, `{
						"data": [{"id": "1", "text": "page one", "author_id": "u1"}],
						"meta": {"result_count": 1, "next_token": "tok-2"}
					}`)
					return
				}
				fmt.Fprint(w, `{
					"data": [{"id": "2", "text": "page two", "author_id": "u2"}],
					"meta": {"result_count": 1}
				}`)
			}))
			defer server.Close()

			src, err := source.NewTwitterSource("token",
				source.WithHost(server.URL),
				source.WithPageDelay(0),
			)
			So(err, ShouldBeNil)

			records, err := src.Fetch(ctx, model.Query{Text: "#news", MaxResults: 150})

			Convey("Then it should follow the next token until exhausted", func() {
				So(err, ShouldBeNil)
				So(page, ShouldEqual, 2)
				So(len(records), ShouldEqual, 2)
				So(records[0].ID, ShouldEqual, "1")
				So(records[1].ID, ShouldEqual, "2")
			})
		})

		Convey("When the API rejects the request", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"title": "Invalid Request", "detail": "query malformed"}`)
			}))
			defer server.Close()

			src, err := source.NewTwitterSource("token",
				source.WithHost(server.URL),
				source.WithPageDelay(0),
			)
			So(err, ShouldBeNil)

			_, err = src.Fetch(ctx, model.Query{Text: "((", MaxResults: 10})

			Convey("Then the failure is surfaced as a fetch error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
			})
		})
	})
}
