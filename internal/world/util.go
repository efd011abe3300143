package world

import "encoding/json"

func unmarshalInto(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
