package blob

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store backs Store with an S3-compatible bucket. Log segments are
// stored as length-prefixed records appended to a single object per
// document (S3 has no native append, so AppendLog reads the object, appends
// and writes it back). S3Store takes no lock of its own; concurrent appends
// to the same document are serialized only by the single persistence worker
// goroutine being the one caller.
type S3Store struct {
	cl     *s3.Client
	bucket string
	presign *s3.PresignClient
	ttl    time.Duration
}

func NewS3Store(cl *s3.Client, bucket string, presignTTL time.Duration) *S3Store {
	return &S3Store{cl: cl, bucket: bucket, presign: s3.NewPresignClient(cl), ttl: presignTTL}
}

func (s *S3Store) GetSnapshot(ctx context.Context, docID string) ([]byte, error) {
	out, err := s.cl.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(snapshotKey(docID))})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) PutSnapshot(ctx context.Context, docID string, snapshot []byte) error {
	if _, err := s.cl.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(snapshotKey(docID)),
		Body:   bytes.NewReader(snapshot),
	}); err != nil {
		return err
	}
	_, err := s.cl.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(logKey(docID))})
	var nsk *types.NoSuchKey
	if err != nil && !errors.As(err, &nsk) {
		return err
	}
	return nil
}

func (s *S3Store) AppendLog(ctx context.Context, docID string, update []byte) error {
	existing, err := s.readLogObject(ctx, docID)
	if err != nil {
		return err
	}
	existing = append(existing, encodeRecord(update)...)
	_, err = s.cl.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(logKey(docID)),
		Body:   bytes.NewReader(existing),
	})
	return err
}

func (s *S3Store) ListLog(ctx context.Context, docID string) ([][]byte, error) {
	raw, err := s.readLogObject(ctx, docID)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func (s *S3Store) readLogObject(ctx context.Context, docID string) ([]byte, error) {
	out, err := s.cl.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(logKey(docID))})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) PresignGet(ctx context.Context, docID string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(snapshotKey(docID)),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) PresignPut(ctx context.Context, docID string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(snapshotKey(docID)),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// encodeRecord/decodeRecords implement the length-prefixed append-log
// format: uint32 big-endian length followed by the update bytes.
func encodeRecord(update []byte) []byte {
	buf := make([]byte, 4+len(update))
	binary.BigEndian.PutUint32(buf, uint32(len(update)))
	copy(buf[4:], update)
	return buf
}

func decodeRecords(raw []byte) ([][]byte, error) {
	var out [][]byte
	for len(raw) > 0 {
		if len(raw) < 4 {
			return nil, errors.New("blob: truncated log record header")
		}
		n := binary.BigEndian.Uint32(raw)
		raw = raw[4:]
		if uint32(len(raw)) < n {
			return nil, errors.New("blob: truncated log record body")
		}
		out = append(out, raw[:n])
		raw = raw[n:]
	}
	return out, nil
}
