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


/*
Package warckit reads, writes and merges WARC-files.

# WARC

The WARC format offers a standard way to structure, manage and store billions of resources collected from the web and elsewhere.
A WARC file is a concatenation of records. Each record has a version line, a block of header fields and a content block
whose size is given by the Content-Length field. A compressed WARC file is the same records where each record is its own
gzip member.

To learn more about the WARC standard, read the specification at https://iipc.github.io/warc-specifications/specifications/warc-format/warc-1.1/

# Create WARC records

The [RecordBuilder] is used to create WARC records. It is initialized with [NewRecordBuilder]. The RecordBuilder will by default
generate a record id and calculate the Content-Length and WARC-Block-Digest. [NewRecord] creates a record from an existing
header set and an in-memory payload.

The [RecordWriter] serializes records to any io.Writer. The [WarcFileWriter] writes a WARC file and is initialized with [NewWarcFileWriter].

# Parse WARC records

The [RecordReader] is used to read records from a stream. It detects compression by itself and skips records which
can not be parsed, reporting them as [MalformedRecordError]. The [WarcFileReader] reads WARC files and is initialized with [NewWarcFileReader].

# Merge, archive and count

The [Merger] copies the records of many sources to one writer and reports what was skipped. [ArchiveDir] creates a
response record for every file in a directory, and [Count] tallies the records of a stream by type and media type.
*/
package warckit
