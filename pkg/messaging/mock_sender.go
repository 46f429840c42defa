package messaging

// MockMessageSender is an in-memory implementation of MessageSender for
// testing; it records every update it is handed.
type MockMessageSender struct {
	Sent []*BookUpdateMessage
}

// NewMockMessageSender creates a new MockMessageSender.
func NewMockMessageSender() *MockMessageSender {
	return &MockMessageSender{}
}

// SendBookUpdate records the update.
func (m *MockMessageSender) SendBookUpdate(update *BookUpdateMessage) error {
	m.Sent = append(m.Sent, update)
	return nil
}

// Close does nothing.
func (m *MockMessageSender) Close() error {
	return nil
}

// Ensure MockMessageSender implements MessageSender
var _ MessageSender = (*MockMessageSender)(nil)
