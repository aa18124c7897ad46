// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/LeeDigitalWorks/bucketvault/pkg/compression"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubBucket = "archive"

type stubObject struct {
	data        []byte
	compression string
}

// s3Stub serves the subset of the S3 REST API the backend calls: PutObject
// with If-None-Match, GetObject and ListObjectsV2 with prefix and delimiter.
type s3Stub struct {
	mu      sync.Mutex
	objects map[string]stubObject

	// hideListings makes listings return nothing, so a put reaches the
	// create-only precondition as if a concurrent writer had won.
	hideListings atomic.Bool
	delimiters   []string

	srv *httptest.Server
}

func newS3Stub(t *testing.T) *s3Stub {
	t.Helper()
	st := &s3Stub{objects: make(map[string]stubObject)}
	st.srv = httptest.NewServer(http.HandlerFunc(st.serve))
	t.Cleanup(st.srv.Close)
	return st
}

// fs returns an S3 filesystem talking to the stub
func (st *s3Stub) fs(t *testing.T, algo compression.Algorithm) *S3 {
	t.Helper()
	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		BaseEndpoint:               aws.String(st.srv.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("key", "secret", ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})
	return newS3FromClient(client, algo, t.TempDir())
}

func (st *s3Stub) keys() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	keys := make([]string, 0, len(st.objects))
	for k := range st.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (st *s3Stub) object(key string) (stubObject, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	obj, ok := st.objects[key]
	return obj, ok
}

func (st *s3Stub) serve(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != stubBucket {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch {
	case r.Method == http.MethodPut:
		st.put(w, r, key)
	case r.Method == http.MethodGet && r.URL.Query().Has("list-type"):
		st.list(w, r)
	case r.Method == http.MethodGet:
		st.get(w, key)
	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func (st *s3Stub) put(w http.ResponseWriter, r *http.Request, key string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeS3Error(w, http.StatusBadRequest, "IncompleteBody")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.objects[key]; exists && r.Header.Get("If-None-Match") == "*" {
		writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
		return
	}
	st.objects[key] = stubObject{data: data, compression: r.Header.Get("X-Amz-Meta-Compression")}
	w.WriteHeader(http.StatusOK)
}

func (st *s3Stub) get(w http.ResponseWriter, key string) {
	obj, ok := st.object(key)
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchKey")
		return
	}
	w.Header().Set("X-Amz-Meta-Compression", obj.compression)
	w.Header().Set("Content-Length", fmt.Sprint(len(obj.data)))
	w.WriteHeader(http.StatusOK)
	w.Write(obj.data)
}

type stubListResult struct {
	XMLName        xml.Name         `xml:"ListBucketResult"`
	Name           string           `xml:"Name"`
	Prefix         string           `xml:"Prefix"`
	KeyCount       int              `xml:"KeyCount"`
	IsTruncated    bool             `xml:"IsTruncated"`
	Contents       []stubListObject `xml:"Contents"`
	CommonPrefixes []stubListPrefix `xml:"CommonPrefixes"`
}

type stubListObject struct {
	Key  string `xml:"Key"`
	Size int    `xml:"Size"`
}

type stubListPrefix struct {
	Prefix string `xml:"Prefix"`
}

func (st *s3Stub) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix, delim := q.Get("prefix"), q.Get("delimiter")

	st.mu.Lock()
	st.delimiters = append(st.delimiters, delim)
	st.mu.Unlock()

	res := stubListResult{Name: stubBucket, Prefix: prefix}
	if !st.hideListings.Load() {
		seen := make(map[string]bool)
		for _, k := range st.keys() {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			rest := strings.TrimPrefix(k, prefix)
			if i := strings.Index(rest, delim); delim != "" && i >= 0 {
				cp := prefix + rest[:i+len(delim)]
				if !seen[cp] {
					seen[cp] = true
					res.CommonPrefixes = append(res.CommonPrefixes, stubListPrefix{Prefix: cp})
				}
				continue
			}
			obj, _ := st.object(k)
			res.Contents = append(res.Contents, stubListObject{Key: k, Size: len(obj.data)})
		}
	}
	res.KeyCount = len(res.Contents) + len(res.CommonPrefixes)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, xml.Header)
	xml.NewEncoder(w).Encode(res)
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, "%s<Error><Code>%s</Code><Message>%s</Message></Error>", xml.Header, code, code)
}

// ============================================================================
// S3 backend against the stub
// ============================================================================

func TestS3_PutStoresOnePackedObject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newS3Stub(t)
	afs := st.fs(t, compression.ZSTD)

	require.NoError(t, afs.PutFileAtomically(ctx, makeBucketDir(t, "b"), "s3://archive/root/idx/b/SPLUNK_BUCKET"))

	assert.Equal(t, []string{"root/idx/b/SPLUNK_BUCKET/bucket.tar"}, st.keys())
	obj, ok := st.object("root/idx/b/SPLUNK_BUCKET/bucket.tar")
	require.True(t, ok)
	assert.Equal(t, "zstd", obj.compression)
}

func TestS3_PutRaceReportsOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newS3Stub(t)
	dst := "s3://archive/root/idx/b/SPLUNK_BUCKET"
	require.NoError(t, st.fs(t, compression.ZSTD).PutFileAtomically(ctx, makeBucketDir(t, "b"), dst))

	// A writer with another codec misses the object in its existence check
	// and reaches the create-only put.
	st.hideListings.Store(true)
	other := st.fs(t, compression.LZ4)
	err := other.PutFileAtomically(ctx, makeBucketDir(t, "b"), dst)
	assert.ErrorIs(t, err, ErrFileOverwrite)
	st.hideListings.Store(false)

	assert.Equal(t, []string{"root/idx/b/SPLUNK_BUCKET/bucket.tar"}, st.keys())
	obj, _ := st.object("root/idx/b/SPLUNK_BUCKET/bucket.tar")
	assert.Equal(t, "zstd", obj.compression, "first writer's object is kept")

	// Any reader decodes with the codec recorded on the object.
	out := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, other.GetFile(ctx, dst, out))
	assertBucketTree(t, out)
}

func TestS3_ListPathListsFormatDirectories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newS3Stub(t)
	afs := st.fs(t, compression.None)
	home := "s3://archive/root/idx/db_2_1_0"

	src := makeBucketDir(t, "db_2_1_0")
	require.NoError(t, afs.PutFileAtomically(ctx, src, home+"/SPLUNK_BUCKET"))
	require.NoError(t, afs.PutFileAtomically(ctx, src, home+"/CSV"))
	require.NoError(t, afs.PutFileAtomically(ctx, src, "s3://archive/root/idx/db_4_3_1/CSV"))

	children, err := afs.ListPath(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{home + "/CSV", home + "/SPLUNK_BUCKET"}, children)

	buckets, err := afs.ListPath(ctx, "s3://archive/root/idx")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://archive/root/idx/db_2_1_0", "s3://archive/root/idx/db_4_3_1"}, buckets)

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Contains(t, st.delimiters, "/")
}

func TestS3_GetFileUsesStoredCodec(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newS3Stub(t)
	dst := "s3://archive/root/idx/b/CSV"
	require.NoError(t, st.fs(t, compression.None).PutFileAtomically(ctx, makeBucketDir(t, "b"), dst))

	obj, _ := st.object("root/idx/b/CSV/bucket.tar")
	assert.Equal(t, "none", obj.compression)

	out := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, st.fs(t, compression.S2).GetFile(ctx, dst, out))
	assertBucketTree(t, out)
}
