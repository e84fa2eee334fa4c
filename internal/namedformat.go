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


// Package internal holds helpers shared by the warckit packages.
package internal

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Sprintt is like fmt.Sprintf, but accepts named parameters from a map.
//
// Example:
//   params := map[string]any{
//     "hello": "world",
//     "num":   42,
//   }
//
//   result := internal.Sprintt("Hello %{hello}s. The answer is %{num}d", params)
//
// Result will then be: 'Hello world. The answer is 42'
func Sprintt(format string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var args []any
	for _, key := range keys {
		ref := "[" + strconv.Itoa(len(args)+1) + "]"
		replaced := strings.ReplaceAll(format, "{"+key+"}", ref)
		if replaced != format {
			args = append(args, params[key])
			format = replaced
		}
	}
	return fmt.Sprintf(format, args...)
}

// GetHostNameOrIP returns the hostname reported by the kernel falling back to outbound ip if hostname could not be resolved.
// If resolution fails, 'unknown' is returned.
func GetHostNameOrIP() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "unknown"
	}
	defer func() { _ = conn.Close() }()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
