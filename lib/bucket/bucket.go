// Copyright (C) 2023 The Clipcast Authors.
//
// This file is part of Clipcast.
//
// Clipcast is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Clipcast is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Clipcast.  If not, see <https://www.gnu.org/licenses/>.

package bucket

import (
	"net/url"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/defsub/clipcast/config"
)

type Bucket struct {
	config *config.BucketConfig
	s3     *s3.S3
}

func OpenMedia(buckets []config.BucketConfig, mediaType string) ([]Bucket, error) {
	var list []Bucket

	for i := range buckets {
		if buckets[i].Media != mediaType {
			continue
		}
		b, err := Open(buckets[i])
		if err != nil {
			return list, err
		}
		list = append(list, *b)
	}

	return list, nil
}

// Connect to the configured S3 bucket.
// Tested: Wasabi, Backblaze, Minio
func Open(config config.BucketConfig) (*Bucket, error) {
	creds := credentials.NewStaticCredentials(
		config.AccessKeyID,
		config.SecretAccessKey, "")
	s3Config := &aws.Config{
		Credentials:      creds,
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(true)}
	session, err := session.NewSession(s3Config)
	bucket := &Bucket{
		s3:     s3.New(session),
		config: &config,
	}
	return bucket, err
}

// ObjectKey prepends the configured prefix to the given name.
func (b *Bucket) ObjectKey(name string) string {
	if b.config.ObjectPrefix == "" {
		return name
	}
	return path.Join(b.config.ObjectPrefix, name)
}

// Put stores the local file under key.
func (b *Bucket) Put(key, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = b.s3.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(b.config.BucketName),
		Key:    aws.String(key),
		Body:   file,
	})
	return err
}

// Generate a presigned url which expires based on config settings.
func (b *Bucket) Presign(key string) *url.URL {
	req, _ := b.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.config.BucketName),
		Key:    aws.String(key)})
	urlStr, _ := req.Presign(b.config.URLExpiration)
	url, _ := url.Parse(urlStr)
	return url
}
