// Package source fetches tune documents from files, HTTP, S3 and DynamoDB.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/db"
	"github.com/jsphweid/ceol/file"
	"github.com/jsphweid/ceol/model"
)

type Source interface {
	Fetch(ctx context.Context) (model.TuneDocument, error)
	String() string
}

type Options struct {
	Region           string
	DynamoDBEndpoint string
	HTTPClient       *http.Client
}

func DefaultOptions() Options {
	return Options{
		Region:           constants.GetAWSRegion(),
		DynamoDBEndpoint: constants.GetDynamoDBEndpoint(),
		HTTPClient:       http.DefaultClient,
	}
}

// Open picks a source by URI scheme. Anything without a known scheme is a
// local path.
func Open(uri string, opts Options) (Source, error) {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) <= 1 {
		// "C:\tunes.json" parses with scheme "c"
		return File{Path: uri}, nil
	}
	switch u.Scheme {
	case "file":
		return File{Path: u.Path}, nil
	case "http", "https":
		client := opts.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		return HTTP{URL: uri, Client: client}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("s3 source needs s3://bucket/key, got %q", uri)
		}
		sess, err := session.NewSession(&aws.Config{Region: aws.String(opts.Region)})
		if err != nil {
			return nil, fmt.Errorf("could not create a new S3 session: %w", err)
		}
		return S3{Client: s3.New(sess), Bucket: u.Host, Key: key}, nil
	case "dynamodb":
		if u.Host == "" {
			return nil, fmt.Errorf("dynamodb source needs dynamodb://table, got %q", uri)
		}
		client, err := db.NewClient(opts.Region, opts.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		return DynamoDB{Client: client, Table: u.Host}, nil
	}
	return nil, fmt.Errorf("unsupported tune source %q", uri)
}

type File struct {
	Path string
}

func (f File) Fetch(ctx context.Context) (model.TuneDocument, error) {
	if err := ctx.Err(); err != nil {
		return model.TuneDocument{}, err
	}
	return file.ReadTuneFile(f.Path)
}

func (f File) String() string { return f.Path }

type HTTP struct {
	URL    string
	Client *http.Client
}

func (h HTTP) Fetch(ctx context.Context) (model.TuneDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return model.TuneDocument{}, err
	}
	req.Header.Set("Accept", "application/json, application/yaml")
	res, err := h.Client.Do(req)
	if err != nil {
		return model.TuneDocument{}, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return model.TuneDocument{}, fmt.Errorf("GET %s: %s", h.URL, res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, constants.MaxTuneFetchBytes))
	if err != nil {
		return model.TuneDocument{}, err
	}

	format := file.FormatOfContentType(res.Header.Get("Content-Type"))
	if u, err := url.Parse(h.URL); err == nil && file.FormatOf(u.Path) != file.Unknown {
		format = file.FormatOf(u.Path)
	}
	return file.DecodeTunes(data, format)
}

func (h HTTP) String() string { return h.URL }

type S3 struct {
	Client s3iface.S3API
	Bucket string
	Key    string
}

func (s S3) Fetch(ctx context.Context) (model.TuneDocument, error) {
	out, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return model.TuneDocument{}, fmt.Errorf("error from S3: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(io.LimitReader(out.Body, constants.MaxTuneFetchBytes))
	if err != nil {
		return model.TuneDocument{}, err
	}
	format := file.FormatOf(s.Key)
	if format == file.Unknown && out.ContentType != nil {
		format = file.FormatOfContentType(*out.ContentType)
	}
	return file.DecodeTunes(data, format)
}

func (s S3) String() string { return "s3://" + s.Bucket + "/" + s.Key }

type DynamoDB struct {
	Client dynamodbiface.DynamoDBAPI
	Table  string
}

func (d DynamoDB) Fetch(ctx context.Context) (model.TuneDocument, error) {
	tunes, err := db.ScanTunes(ctx, d.Client, d.Table)
	if err != nil {
		return model.TuneDocument{}, err
	}
	return model.TuneDocument{Tunes: tunes}.Normalize(), nil
}

func (d DynamoDB) String() string { return "dynamodb://" + d.Table }
