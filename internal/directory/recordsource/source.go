// internal/directory/recordsource/source.go
package recordsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"visa-directory/internal/common/config"
	commonhttp "visa-directory/internal/common/http"
)

const (
	KindHTTP          = "http"
	KindS3            = "s3"
	KindElasticsearch = "elasticsearch"

	defaultIndexSize = 1000
)

// Payload is the raw body of one fetch, before any parsing.
type Payload struct {
	ContentType string
	Body        []byte
}

// Source is one entry of the fallback chain.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Payload, error)
}

// HTTPSource performs a plain GET against a static snapshot endpoint.
type HTTPSource struct {
	name   string
	url    string
	client *commonhttp.Client
}

func NewHTTPSource(name, url string, client *commonhttp.Client) *HTTPSource {
	return &HTTPSource{name: name, url: url, client: client}
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) Fetch(ctx context.Context) (*Payload, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrSourceRejected, s.url, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrSourceRejected, s.url, resp.StatusCode)
	}
	return &Payload{ContentType: resp.ContentType, Body: resp.Body}, nil
}

// ObjectGetter is satisfied by the S3 client wrapper.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string, limit int64) ([]byte, string, error)
}

// S3Source reads a snapshot object exported by the content process.
type S3Source struct {
	name   string
	bucket string
	key    string
	store  ObjectGetter
}

func NewS3Source(name, bucket, key string, store ObjectGetter) *S3Source {
	return &S3Source{name: name, bucket: bucket, key: key, store: store}
}

func (s *S3Source) Name() string { return s.name }

func (s *S3Source) Fetch(ctx context.Context) (*Payload, error) {
	body, contentType, err := s.store.GetObject(ctx, s.bucket, s.key, commonhttp.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: s3://%s/%s: %v", ErrSourceRejected, s.bucket, s.key, err)
	}
	return &Payload{ContentType: contentType, Body: body}, nil
}

// ElasticsearchSource reads every document of an index (up to size) and presents the
// _source documents as a JSON array. A document without an id field inherits _id.
type ElasticsearchSource struct {
	name   string
	index  string
	size   int
	client *elasticsearch.Client
}

func NewElasticsearchSource(name, index string, size int, client *elasticsearch.Client) *ElasticsearchSource {
	if size <= 0 {
		size = defaultIndexSize
	}
	return &ElasticsearchSource{name: name, index: index, size: size, client: client}
}

func (s *ElasticsearchSource) Name() string { return s.name }

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) Fetch(ctx context.Context) (*Payload, error) {
	size := s.size
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader([]byte(`{"query":{"match_all":{}},"sort":["_doc"]}`)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", ErrSourceRejected, s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search %s: %s", ErrSourceRejected, s.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode %s hits: %v", ErrSourceRejected, s.index, err)
	}

	docs := make([]map[string]interface{}, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source == nil {
			continue
		}
		if _, ok := hit.Source["id"]; !ok {
			hit.Source["id"] = hit.ID
		}
		docs = append(docs, hit.Source)
	}

	body, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s hits: %v", ErrSourceRejected, s.index, err)
	}
	return &Payload{ContentType: "application/json", Body: body}, nil
}

// Dependencies carries the clients a configured chain may need. Any may be nil when no
// source of that kind is configured.
type Dependencies struct {
	HTTP          *commonhttp.Client
	S3            ObjectGetter
	Elasticsearch *elasticsearch.Client
}

// FromConfig builds the sources in priority order.
func FromConfig(descriptors []config.SourceDescriptor, deps Dependencies) ([]Source, error) {
	sources := make([]Source, 0, len(descriptors))
	for i, d := range descriptors {
		switch d.Kind {
		case KindHTTP, "":
			if deps.HTTP == nil {
				return nil, fmt.Errorf("source %d (%s): no http client", i, d.Name)
			}
			sources = append(sources, NewHTTPSource(d.Name, d.URL, deps.HTTP))
		case KindS3:
			if deps.S3 == nil {
				return nil, fmt.Errorf("source %d (%s): s3 integration disabled", i, d.Name)
			}
			sources = append(sources, NewS3Source(d.Name, d.Bucket, d.Key, deps.S3))
		case KindElasticsearch:
			if deps.Elasticsearch == nil {
				return nil, fmt.Errorf("source %d (%s): no elasticsearch client", i, d.Name)
			}
			sources = append(sources, NewElasticsearchSource(d.Name, d.Index, d.Size, deps.Elasticsearch))
		default:
			return nil, fmt.Errorf("source %d (%s): unknown kind %q", i, d.Name, d.Kind)
		}
	}
	return sources, nil
}
