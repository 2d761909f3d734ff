package pilot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DropEvents is the event order a browser emits for a file drop
var DropEvents = []string{"dragenter", "dragover", "drop"}

const dropScriptTemplate = `function() {
	const target = this;
	const raw = atob(%s);
	const bytes = new Uint8Array(raw.length);
	for (let i = 0; i < raw.length; i++) {
		bytes[i] = raw.charCodeAt(i);
	}
	const file = new File([bytes], %s, {type: 'text/plain'});
	const transfer = new DataTransfer();
	transfer.items.add(file);
	for (const type of %s) {
		target.dispatchEvent(new DragEvent(type, {
			bubbles: true,
			cancelable: true,
			dataTransfer: transfer,
		}));
	}
}`

// BuildDropScript returns a function that, called with the drop target as
// `this`, dispatches a synthetic file drop carrying data under name.
func BuildDropScript(name string, data []byte) (string, error) {
	payload, err := json.Marshal(base64.StdEncoding.EncodeToString(data))
	if err != nil {
		return "", err
	}
	fileName, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	events, err := json.Marshal(DropEvents)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(dropScriptTemplate, payload, fileName, events), nil
}

// InjectFile drops a file onto the canvas. Success means the events were
// dispatched; the page may still ignore them.
func InjectFile(ctx context.Context, d Driver, name string, data []byte) error {
	script, err := BuildDropScript(name, data)
	if err != nil {
		return fmt.Errorf("building drop script: %w", err)
	}
	if err := d.ExecuteScript(ctx, script); err != nil {
		return fmt.Errorf("dropping %s: %w", name, err)
	}
	return nil
}
