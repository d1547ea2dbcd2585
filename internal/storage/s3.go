package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3Config descreve o bucket S3 (ou compatível, como R2) de destino.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

func (c S3Config) validate() error {
	switch {
	case strings.TrimSpace(c.Bucket) == "":
		return errors.New("storage: S3_BUCKET obrigatório")
	case strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "":
		return errors.New("storage: credenciais S3 obrigatórias")
	}
	return nil
}

// S3Uploader envia objetos com o s3manager do aws-sdk-go.
type S3Uploader struct {
	bucket   string
	uploader s3manageriface.UploaderAPI
}

// NewS3Uploader cria a sessão AWS. Com endpoint customizado usa path-style,
// necessário para R2 e MinIO.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	awsCfg := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return newS3Uploader(cfg.Bucket, s3manager.NewUploader(sess)), nil
}

func newS3Uploader(bucket string, api s3manageriface.UploaderAPI) *S3Uploader {
	return &S3Uploader{bucket: bucket, uploader: api}
}

// Upload envia o corpo para o bucket e devolve a URL do objeto.
func (u *S3Uploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	key := strings.TrimLeft(strings.TrimSpace(input.Key), "/")
	if key == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if len(input.Body) == 0 {
		return nil, errors.New("storage: corpo vazio")
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req := &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(input.Body),
		ContentType: aws.String(contentType),
	}
	if cc := strings.TrimSpace(input.CacheControl); cc != "" {
		req.CacheControl = aws.String(cc)
	}

	out, err := u.uploader.UploadWithContext(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &UploadResult{URL: out.Location}
	if out.ETag != nil {
		res.ETag = strings.Trim(*out.ETag, `"`)
	}
	return res, nil
}
