/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package warckit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHeader(t *testing.T) {
	valid := func() *WarcFields {
		return &WarcFields{
			&nameValue{Name: WarcDate, Value: "2017-03-06T04:03:53Z"},
			&nameValue{Name: WarcRecordID, Value: "<urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008>"},
			&nameValue{Name: WarcFilename, Value: "temp-20170306040353.warc.gz"},
			&nameValue{Name: WarcType, Value: "warcinfo"},
			&nameValue{Name: ContentType, Value: "application/warc-fields"},
			&nameValue{Name: ContentLength, Value: "249"},
		}
	}
	with := func(name, value string) *WarcFields {
		wf := valid()
		wf.Set(name, value)
		return wf
	}
	without := func(name string) *WarcFields {
		wf := valid()
		wf.Delete(name)
		return wf
	}

	tests := []struct {
		name       string
		header     *WarcFields
		strict     bool
		wantType   RecordType
		wantLength int64
		wantErr    bool
	}{
		{"valid", valid(), true, Warcinfo, 249, false},
		{"unknown type", with(WarcType, "warcinfoo"), true, Unknown, 249, false},
		{"missing content length", without(ContentLength), false, Unknown, 0, true},
		{"negative content length", with(ContentLength, "-1"), false, Unknown, 0, true},
		{"content length not a number", with(ContentLength, "ten"), false, Unknown, 0, true},
		{"missing record id, lenient", without(WarcRecordID), false, Warcinfo, 249, false},
		{"missing record id, strict", without(WarcRecordID), true, Warcinfo, 249, true},
		{"missing date, strict", without(WarcDate), true, Warcinfo, 249, true},
		{"illegal date, lenient", with(WarcDate, "2017-13-06T04:03:53Z"), false, Warcinfo, 249, false},
		{"illegal date, strict", with(WarcDate, "2017-13-06T04:03:53Z"), true, Warcinfo, 249, true},
		{"record id without brackets, strict", with(WarcRecordID, "urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008"), true, Warcinfo, 249, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, length, err := validateHeader(tt.header, tt.strict)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if err == nil || tt.wantLength > 0 {
				assert.Equal(t, tt.wantType, rt)
				assert.Equal(t, tt.wantLength, length)
			}
		})
	}
}

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"<urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008>", false},
		{"<http://example.com/record/1>", false},
		{"urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008", true},
		{"<e9a0cecc-0221-11e7-adb1-0242ac120008>", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := validateRecordID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
