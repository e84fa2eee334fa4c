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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarcFields_Add(t *testing.T) {
	tests := []struct {
		name       string
		initial    WarcFields
		fieldName  string
		fieldValue string
		want       WarcFields
	}{
		{"Add to empty",
			WarcFields{},
			"name1", "value1",
			WarcFields{&nameValue{"name1", "value1"}}},
		{"Add new field",
			WarcFields{&nameValue{"Name1", "value1"}},
			"name2", "value2",
			WarcFields{&nameValue{"Name1", "value1"}, &nameValue{"name2", "value2"}}},
		{"Add same field",
			WarcFields{&nameValue{"Name1", "value1"}},
			"name1", "value2",
			WarcFields{&nameValue{"Name1", "value1"}, &nameValue{"name1", "value2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.initial.Add(tt.fieldName, tt.fieldValue)
			assert.Equal(t, tt.want, tt.initial)
		})
	}
}

func TestWarcFields_Get(t *testing.T) {
	wf := NewWarcFields("Name1", "value1", "Name2", "value2", "name1", "value3")
	tests := []struct {
		name      string
		fieldName string
		want      string
		wantAll   []string
		wantHas   bool
	}{
		{"first of many", "name1", "value1", []string{"value1", "value3"}, true},
		{"case insensitive", "NAME2", "value2", []string{"value2"}, true},
		{"missing", "name3", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wf.Get(tt.fieldName))
			assert.Equal(t, tt.wantAll, wf.GetAll(tt.fieldName))
			assert.Equal(t, tt.wantHas, wf.Has(tt.fieldName))
		})
	}
}

func TestWarcFields_Set(t *testing.T) {
	tests := []struct {
		name       string
		initial    WarcFields
		fieldName  string
		fieldValue string
		want       WarcFields
	}{
		{"Set on empty",
			WarcFields{},
			"name1", "value1",
			WarcFields{&nameValue{"name1", "value1"}}},
		{"Set existing keeps position and casing",
			WarcFields{&nameValue{"Name1", "value1"}, &nameValue{"Name2", "value2"}},
			"name1", "value3",
			WarcFields{&nameValue{"Name1", "value3"}, &nameValue{"Name2", "value2"}}},
		{"Set removes duplicates",
			WarcFields{&nameValue{"Name1", "value1"}, &nameValue{"Name2", "value2"}, &nameValue{"Name1", "value3"}},
			"name1", "value4",
			WarcFields{&nameValue{"Name1", "value4"}, &nameValue{"Name2", "value2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.initial.Set(tt.fieldName, tt.fieldValue)
			assert.Equal(t, tt.want, tt.initial)
		})
	}
}

func TestWarcFields_Delete(t *testing.T) {
	wf := NewWarcFields("Name1", "value1", "Name2", "value2", "name1", "value3")
	wf.Delete("NAME1")
	assert.Equal(t, []string{"Name2"}, wf.Names())
	assert.Equal(t, 1, wf.Len())

	wf.Delete("name3")
	assert.Equal(t, 1, wf.Len())
}

func TestWarcFields_Write(t *testing.T) {
	wf := NewWarcFields("WARC-Type", "response", "Content-Length", "10")
	var buf bytes.Buffer
	n, err := wf.Write(&buf)
	assert.NoError(t, err)
	want := "WARC-Type: response\r\nContent-Length: 10\r\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, wf.String())
}

func TestWarcFields_clone(t *testing.T) {
	wf := NewWarcFields("Name1", "value1")
	c := wf.clone()
	c.Set("Name1", "changed")
	c.Add("Name2", "value2")
	assert.Equal(t, "value1", wf.Get("Name1"))
	assert.Equal(t, 1, wf.Len())
	assert.Equal(t, "changed", c.Get("Name1"))
}
