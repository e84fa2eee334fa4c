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

package archivedir

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlnwa/warckit"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunE(t *testing.T) {
	defer viper.Reset()
	viper.Set("compress", true)
	viper.Set("date", "2021-03-04T05:06:07Z")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "logo.png"), []byte("png"), 0644))
	// The output is written inside the archived directory and must not archive itself
	output := filepath.Join(dir, "site.warc.gz")

	require.NoError(t, runE(&conf{inputDir: dir, outputFile: output, baseURL: "http://example.com"}))

	r, err := warckit.NewWarcFileReader(output, 0, warckit.WithStrict(true))
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var uris, types []string
	for {
		wr, _, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "2021-03-04T05:06:07Z", wr.WarcHeader().Get(warckit.WarcDate))
		uris = append(uris, wr.TargetURI())
		types = append(types, wr.WarcHeader().Get(warckit.ContentType))
		_ = wr.Close()
	}
	assert.Equal(t, []string{"http://example.com/img/logo.png", "http://example.com/index.html"}, uris)
	assert.Equal(t, []string{"image/png", "text/html"}, types)
}

func TestRunE_invalidDate(t *testing.T) {
	defer viper.Reset()
	viper.Set("date", "yesterday")

	output := filepath.Join(t.TempDir(), "out.warc")
	assert.Error(t, runE(&conf{inputDir: t.TempDir(), outputFile: output, baseURL: "http://example.com"}))
	assert.NoFileExists(t, output)
}
