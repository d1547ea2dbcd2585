package storage

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/charismabi/handson/internal/config"
)

type fakeUploader struct {
	s3manageriface.UploaderAPI
	got  *s3manager.UploadInput
	body []byte
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.got = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3manager.UploadOutput{Location: "https://bucket/" + *in.Key, ETag: aws.String(`"abc"`)}, nil
}

func TestS3UploaderUpload(t *testing.T) {
	fake := &fakeUploader{}
	u := newS3Uploader("relatorios", fake)

	res, err := u.Upload(context.Background(), UploadInput{Key: "/exports/acme/news/1.xlsx", Body: []byte("xlsx")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if *fake.got.Bucket != "relatorios" || *fake.got.Key != "exports/acme/news/1.xlsx" {
		t.Fatalf("input = %+v", fake.got)
	}
	if *fake.got.ContentType != "application/octet-stream" || string(fake.body) != "xlsx" {
		t.Fatalf("content type %q body %q", *fake.got.ContentType, fake.body)
	}
	if res.ETag != "abc" || res.URL != "https://bucket/exports/acme/news/1.xlsx" {
		t.Fatalf("resultado = %+v", res)
	}
}

func TestS3UploaderRejectsEmpty(t *testing.T) {
	u := newS3Uploader("b", &fakeUploader{})
	if _, err := u.Upload(context.Background(), UploadInput{Key: "k"}); err == nil {
		t.Fatal("esperava erro para corpo vazio")
	}
	if _, err := u.Upload(context.Background(), UploadInput{Body: []byte("x")}); err == nil {
		t.Fatal("esperava erro para chave vazia")
	}
}

func TestNewProvider(t *testing.T) {
	for _, provider := range []string{"", "noop"} {
		up, err := New(config.StorageConfig{Provider: provider})
		if err != nil {
			t.Fatalf("New(%q): %v", provider, err)
		}
		if up != nil {
			t.Fatalf("New(%q) deveria desligar o arquivamento, obteve %T", provider, up)
		}
	}
	if _, err := New(config.StorageConfig{Provider: "s3"}); err == nil {
		t.Fatal("esperava erro sem bucket")
	}
	if _, err := New(config.StorageConfig{Provider: "gcs"}); err == nil {
		t.Fatal("esperava erro para provider desconhecido")
	}
}
