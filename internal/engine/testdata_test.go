package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCSV = `Dist Code,Year,State Code,State Name,Dist Name,RICE AREA (1000 ha),RICE PRODUCTION (1000 tons),RICE YIELD (Kg per ha),WHEAT AREA (1000 ha),WHEAT YIELD (Kg per ha),KHARIF SORGHUM AREA (1000 ha),RABI SORGHUM AREA (1000 ha),RABI SORGHUM YIELD (Kg per ha)
1,2010,14,Chhattisgarh,Durg,100,200,1000,10,1500,5,7,700
2,2010,14,Chhattisgarh,Bastar,50,,900,NA,1400,1,2,650
3,2011,14,Chhattisgarh,Durg,110,220,1100,12,1600,4,6,710
4,2010,11,Gujarat,Ahmedabad,20,30,800,40,2500,3,9,600
5,2011,11,Gujarat,Ahmedabad,25,35,850,42,2550,,10,620
`

func sampleTable(t *testing.T) *RecordTable {
	t.Helper()
	table, err := ParseCSV(strings.NewReader(sampleCSV), LoaderOptions{MissingValues: DefaultMissingValues})
	require.NoError(t, err)
	return table
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
