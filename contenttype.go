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
	"mime"
	"path/filepath"
	"strings"
)

// ContentTypeGuesser guesses the Content-Type of a file.
type ContentTypeGuesser interface {
	// GuessContentType returns a media type for the file name. It never returns the empty string.
	GuessContentType(name string) string
}

// ContentTypeGuesserFunc adapts a function to the ContentTypeGuesser interface.
type ContentTypeGuesserFunc func(name string) string

func (f ContentTypeGuesserFunc) GuessContentType(name string) string {
	return f(name)
}

// extensionTypes are used before the system mime tables, which differ between platforms.
var extensionTypes = map[string]string{
	".css":  "text/css",
	".csv":  "text/csv",
	".gif":  "image/gif",
	".htm":  "text/html",
	".html": "text/html",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".js":   "text/javascript",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".warc": "application/warc",
	".webp": "image/webp",
	".xml":  "application/xml",
}

// ExtensionGuesser guesses the Content-Type from the file extension.
//
// Extensions are looked up in Types, then in a built in table and last in the mime tables of the system.
// Unknown extensions and names without extension give application/octet-stream.
type ExtensionGuesser struct {
	Types map[string]string // extension including the dot, lower case, to media type
}

func (g ExtensionGuesser) GuessContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ApplicationOctet
	}
	if t, ok := g.Types[ext]; ok {
		return t
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := NormalizeMediaType(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	return ApplicationOctet
}
