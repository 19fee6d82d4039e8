// Package profiles holds named superblock presets, loaded from an embedded
// CSV the same way the teacher loads its disk-geometry table: a slug column
// plus one column per field, unmarshalled with gocsv.
package profiles

import (
	_ "embed"
	"fmt"

	"github.com/gocarina/gocsv"

	"github.com/dargueta/fatimg/image"
)

//go:embed profiles.csv
var profilesCSV string

type csvRow struct {
	Name                         string `csv:"name"`
	FATType                      int32  `csv:"fat_type"`
	FATCopies                    int32  `csv:"fat_copies"`
	ClusterSize                  uint32 `csv:"cluster_size"`
	RootDirectoryMaxEntriesCount uint64 `csv:"root_directory_max_entries_count"`
	ReservedClusterCount         uint32 `csv:"reserved_cluster_count"`
}

var byName map[string]image.Superblock

func init() {
	var rows []*csvRow
	if err := gocsv.UnmarshalString(profilesCSV, &rows); err != nil {
		panic(fmt.Sprintf("profiles: malformed embedded profiles.csv: %v", err))
	}

	byName = make(map[string]image.Superblock, len(rows))
	for _, row := range rows {
		clusterCount := uint32(1<<uint(row.FATType)) - row.ReservedClusterCount
		byName[row.Name] = image.Superblock{
			VolumeDescriptor:             "fatimg profile " + row.Name,
			FATType:                      row.FATType,
			FATCopies:                    row.FATCopies,
			ClusterSize:                  row.ClusterSize,
			RootDirectoryMaxEntriesCount: row.RootDirectoryMaxEntriesCount,
			ClusterCount:                 clusterCount,
			ReservedClusterCount:         row.ReservedClusterCount,
			Signature:                    image.SignatureOK,
		}
	}
}

// Get looks up a named superblock preset. The "default" profile carries the
// same numeric fields and signature as image.DefaultSuperblock(); only its
// volume descriptor text differs.
func Get(name string) (image.Superblock, bool) {
	sb, ok := byName[name]
	return sb, ok
}

// Names lists every available profile name.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	return names
}
