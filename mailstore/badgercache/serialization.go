// Copyright 2026 The mailsonar authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badgercache

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/mailsonar/mailsonar/core"
)

// Hand-written MUS serializers for the snapshot format. Fields are written
// in declaration order; timestamps are unix microseconds.

type emailSer struct{}

// EmailMUS serializes core.Email values for storage.
var EmailMUS = emailSer{}

func (emailSer) Marshal(v core.Email, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.Subject, bs[n:])
	n += ord.String.Marshal(v.From, bs[n:])
	n += ord.String.Marshal(v.Date, bs[n:])
	n += ord.String.Marshal(v.Body, bs[n:])
	n += ord.String.Marshal(v.FullBody, bs[n:])
	return n
}

func (emailSer) Unmarshal(bs []byte) (v core.Email, n int, err error) {
	var (
		id uint64
		n1 int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Id = core.ID(id)
	v.Subject, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.From, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Date, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Body, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FullBody, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (emailSer) Size(v core.Email) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.Subject)
	size += ord.String.Size(v.From)
	size += ord.String.Size(v.Date)
	size += ord.String.Size(v.Body)
	size += ord.String.Size(v.FullBody)
	return size
}

type snapshotSer struct{}

// SnapshotMUS serializes Snapshot values for storage.
var SnapshotMUS = snapshotSer{}

func (snapshotSer) Marshal(v Snapshot, bs []byte) (n int) {
	n = ord.String.Marshal(v.Folder, bs)
	n += varint.Int64.Marshal(v.FetchedAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(len(v.Emails), bs[n:])
	for _, email := range v.Emails {
		n += EmailMUS.Marshal(*email, bs[n:])
	}
	return n
}

func (snapshotSer) Unmarshal(bs []byte) (v Snapshot, n int, err error) {
	var n1 int
	v.Folder, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var fetchedAt int64
	fetchedAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FetchedAt = time.UnixMicro(fetchedAt).UTC()
	var count int
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Emails = make([]*core.Email, 0, count)
	for i := 0; i < count; i++ {
		var email core.Email
		email, n1, err = EmailMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v.Emails = append(v.Emails, &email)
	}
	return
}

func (snapshotSer) Size(v Snapshot) (size int) {
	size = ord.String.Size(v.Folder)
	size += varint.Int64.Size(v.FetchedAt.UnixMicro())
	size += varint.Int.Size(len(v.Emails))
	for _, email := range v.Emails {
		size += EmailMUS.Size(*email)
	}
	return size
}

// MarshalSnapshot serializes a Snapshot to bytes.
func MarshalSnapshot(snapshot *Snapshot) []byte {
	buf := make([]byte, SnapshotMUS.Size(*snapshot))
	SnapshotMUS.Marshal(*snapshot, buf)
	return buf
}

// UnmarshalSnapshot deserializes a Snapshot from bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	snapshot, _, err := SnapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
