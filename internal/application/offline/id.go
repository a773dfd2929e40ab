package offline

import (
	"encoding/json"
	"strconv"
	"strings"
)

const localPrefix = "local-"

// ID identificador de una entidad en el terminal: local (placeholder aún sin confirmar) o
// asignado por el servidor. El cero no es válido.
type ID struct {
	local  uint64
	remote string
}

// LocalID placeholder generado por el Store. n > 0.
func LocalID(n uint64) ID { return ID{local: n} }

// RemoteID ID asignado por el servidor.
func RemoteID(s string) ID { return ID{remote: s} }

// ParseID reconoce la forma "local-<n>"; cualquier otra cadena es un ID remoto.
func ParseID(s string) ID {
	if rest, ok := strings.CutPrefix(s, localPrefix); ok {
		if n, err := strconv.ParseUint(rest, 10, 64); err == nil && n > 0 {
			return LocalID(n)
		}
	}
	return RemoteID(s)
}

func (id ID) IsLocal() bool { return id.local != 0 }

func (id ID) IsZero() bool { return id.local == 0 && id.remote == "" }

// Remote devuelve el ID del servidor, vacío si es local.
func (id ID) Remote() string { return id.remote }

func (id ID) String() string {
	if id.IsLocal() {
		return localPrefix + strconv.FormatUint(id.local, 10)
	}
	return id.remote
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*id = ParseID(s)
	return nil
}
