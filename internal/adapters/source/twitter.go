package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/logger"
	"github.com/okian/campwatch/pkg/metrics"
)

// Twitter recent-search paging constants. The API accepts 10..100 results
// per page.
const (
	minPageSize      = 10
	maxPageSize      = 100
	defaultPageDelay = time.Second
	defaultHost      = "https://api.twitter.com"
)

// bearerAuthorizer adds the bearer token to outgoing requests.
type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// TwitterSource fetches recent posts through the Twitter API v2 recent
// search endpoint, paginating until the requested batch size is reached.
type TwitterSource struct {
	client    *twitter.Client
	pageDelay time.Duration
	logger    logger.Logger
}

// NewTwitterSource creates a recent-search source authenticated with the
// given bearer token.
func NewTwitterSource(bearerToken string, opts ...TwitterOption) (*TwitterSource, error) {
	if bearerToken == "" {
		return nil, ErrNoBearerToken
	}

	s := &TwitterSource{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: bearerToken},
			Client:     http.DefaultClient,
			Host:       defaultHost,
		},
		pageDelay: defaultPageDelay,
		logger:    logger.Get().Named("twitter-source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch runs a paginated recent search and returns the raw record batch.
func (s *TwitterSource) Fetch(ctx context.Context, q model.Query) ([]model.RawRecord, error) {
	queryText := q.Text
	if q.Lang != "" {
		queryText += " lang:" + q.Lang
	}
	if q.MaxResults <= 0 {
		q.MaxResults = maxPageSize
	}

	opts := twitter.TweetRecentSearchOpts{
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldAuthorID,
			twitter.TweetFieldLanguage,
			twitter.TweetFieldPublicMetrics,
			twitter.TweetFieldEntities,
			twitter.TweetFieldReferencedTweets,
		},
		UserFields: []twitter.UserField{twitter.UserFieldUserName},
		Expansions: []twitter.Expansion{twitter.ExpansionAuthorID},
	}
	if q.Minutes > 0 {
		opts.StartTime = time.Now().UTC().Add(-time.Duration(q.Minutes) * time.Minute)
	}

	records := make([]model.RawRecord, 0, q.MaxResults)
	for len(records) < q.MaxResults {
		remaining := q.MaxResults - len(records)
		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		if pageSize < minPageSize {
			pageSize = minPageSize
		}
		opts.MaxResults = pageSize

		rsp, err := s.client.TweetRecentSearch(ctx, queryText, opts)
		if err != nil {
			metrics.RecordFetchError()
			return nil, fmt.Errorf("%w: recent search: %w", ErrFetch, err)
		}
		metrics.RecordFetchPage()

		users := make(map[string]*twitter.UserObj)
		if rsp.Raw != nil && rsp.Raw.Includes != nil {
			for _, u := range rsp.Raw.Includes.Users {
				users[u.ID] = u
			}
		}

		var page []*twitter.TweetObj
		if rsp.Raw != nil {
			page = rsp.Raw.Tweets
		}
		for _, tweet := range page {
			if tweet == nil {
				continue
			}
			records = append(records, convertTweet(tweet, users[tweet.AuthorID]))
			if len(records) >= q.MaxResults {
				break
			}
		}
		metrics.RecordRecordsFetched(len(page))

		nextToken := ""
		if rsp.Meta != nil {
			nextToken = rsp.Meta.NextToken
		}
		if nextToken == "" || len(page) == 0 {
			break
		}
		opts.NextToken = nextToken

		s.logger.Debug(ctx, "fetched page",
			logger.Int("records", len(records)),
			logger.Int("target", q.MaxResults),
		)

		// Pause between pages to stay inside the rate limit.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrFetch, ctx.Err())
		case <-time.After(s.pageDelay):
		}
	}

	s.logger.Info(ctx, "fetch complete", logger.Int("records", len(records)))
	return records, nil
}

// convertTweet maps an API tweet plus its resolved author into a RawRecord.
func convertTweet(tweet *twitter.TweetObj, user *twitter.UserObj) model.RawRecord {
	rec := model.RawRecord{
		ID:        tweet.ID,
		Text:      tweet.Text,
		CreatedAt: tweet.CreatedAt,
		AuthorID:  tweet.AuthorID,
		Lang:      tweet.Language,
	}

	if tweet.PublicMetrics != nil {
		rec.PublicMetrics = &model.RawMetrics{
			RetweetCount: tweet.PublicMetrics.Retweets,
			ReplyCount:   tweet.PublicMetrics.Replies,
			LikeCount:    tweet.PublicMetrics.Likes,
			QuoteCount:   tweet.PublicMetrics.Quotes,
		}
	}

	if tweet.Entities != nil && (len(tweet.Entities.Mentions) > 0 || len(tweet.Entities.HashTags) > 0) {
		entities := &model.RawEntities{}
		for _, m := range tweet.Entities.Mentions {
			entities.Mentions = append(entities.Mentions, model.RawMention{Username: m.UserName})
		}
		for _, h := range tweet.Entities.HashTags {
			entities.Hashtags = append(entities.Hashtags, model.RawHashtag{Tag: h.Tag})
		}
		rec.Entities = entities
	}

	for _, ref := range tweet.ReferencedTweets {
		if ref == nil {
			continue
		}
		rec.ReferencedTweets = append(rec.ReferencedTweets, model.RawReferent{
			ID:   ref.ID,
			Type: ref.Type,
		})
	}

	if user != nil {
		rec.User = &model.RawUser{ID: user.ID, Username: user.UserName}
	}

	return rec
}
