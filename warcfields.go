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
	"fmt"
	"io"
	"strings"
)

type nameValue struct {
	Name  string
	Value string
}

func (n *nameValue) String() string {
	return n.Name + ": " + n.Value
}

// WarcFields is an ordered list of header fields.
//
// Field names are matched case insensitive, but the casing used when a field was added is kept
// and used when the fields are written.
type WarcFields []*nameValue

// NewWarcFields creates a WarcFields from alternating names and values.
func NewWarcFields(nameValues ...string) *WarcFields {
	wf := &WarcFields{}
	for i := 0; i+1 < len(nameValues); i += 2 {
		wf.Add(nameValues[i], nameValues[i+1])
	}
	return wf
}

// Get gets the first value associated with the given key. It is case insensitive.
// If the key doesn't exist or there are no values associated with the key, Get returns "".
// To access multiple values of a key, use GetAll.
func (wf *WarcFields) Get(name string) string {
	for _, nv := range *wf {
		if strings.EqualFold(nv.Name, name) {
			return nv.Value
		}
	}
	return ""
}

func (wf *WarcFields) GetAll(name string) []string {
	var result []string
	for _, nv := range *wf {
		if strings.EqualFold(nv.Name, name) {
			result = append(result, nv.Value)
		}
	}
	return result
}

func (wf *WarcFields) Has(name string) bool {
	for _, nv := range *wf {
		if strings.EqualFold(nv.Name, name) {
			return true
		}
	}
	return false
}

func (wf *WarcFields) Add(name string, value string) {
	*wf = append(*wf, &nameValue{Name: name, Value: value})
}

// Set replaces the value of the first field with the given name and removes any other fields with
// that name. The field keeps its position and casing. If no such field exists, it is appended.
func (wf *WarcFields) Set(name string, value string) {
	isSet := false
	result := (*wf)[:0]
	for _, nv := range *wf {
		if strings.EqualFold(nv.Name, name) {
			if isSet {
				continue
			}
			nv.Value = value
			isSet = true
		}
		result = append(result, nv)
	}
	*wf = result
	if !isSet {
		wf.Add(name, value)
	}
}

func (wf *WarcFields) Delete(name string) {
	var result WarcFields
	for _, nv := range *wf {
		if !strings.EqualFold(nv.Name, name) {
			result = append(result, nv)
		}
	}
	*wf = result
}

// Names returns the field names in order, with the casing they were added with.
func (wf *WarcFields) Names() []string {
	names := make([]string, 0, len(*wf))
	for _, nv := range *wf {
		names = append(names, nv.Name)
	}
	return names
}

func (wf *WarcFields) Len() int {
	return len(*wf)
}

// Write writes the fields as 'Name: Value\r\n' lines.
func (wf *WarcFields) Write(w io.Writer) (bytesWritten int64, err error) {
	var n int
	for _, field := range *wf {
		n, err = fmt.Fprintf(w, "%s: %s\r\n", field.Name, field.Value)
		bytesWritten += int64(n)
		if err != nil {
			return
		}
	}
	return
}

func (wf *WarcFields) String() string {
	sb := &strings.Builder{}
	if _, err := wf.Write(sb); err != nil {
		panic(err)
	}
	return sb.String()
}

func (wf WarcFields) clone() *WarcFields {
	r := make(WarcFields, 0, len(wf))
	for _, p := range wf {
		v := *p
		r = append(r, &v)
	}
	return &r
}
