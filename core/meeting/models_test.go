package meeting

import "testing"

func TestMeeting_TypeLabel(t *testing.T) {
	tests := []struct {
		mtype string
		want  string
	}{
		{mtype: TypeSmallGroup, want: "Small Group"},
		{mtype: TypeLargeGroup, want: "Large Group"},
		{mtype: TypeWorkshop, want: "Workshop"},
		{mtype: TypeMentor, want: "Mentor"},
		{mtype: TypeCoordinator, want: "Coordinator"},
		{mtype: "bonding", want: "bonding"},
	}
	for _, tt := range tests {
		t.Run(tt.mtype, func(t *testing.T) {
			m := Meeting{Type: tt.mtype}
			if got := m.TypeLabel(); got != tt.want {
				t.Errorf("TypeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMeeting_DisplayName(t *testing.T) {
	m := Meeting{Name: "Kickoff", Type: TypeLargeGroup}
	if got, want := m.DisplayName(), "Kickoff"; got != want {
		t.Errorf("DisplayName() = %q, want %q", got, want)
	}

	m.Name = ""
	if got, want := m.DisplayName(), "Large Group"; got != want {
		t.Errorf("DisplayName() = %q, want %q", got, want)
	}
}

func TestMeeting_Color(t *testing.T) {
	tests := []struct {
		mtype string
		want  string
	}{
		{mtype: TypeSmallGroup, want: "red"},
		{mtype: TypeLargeGroup, want: "blue"},
		{mtype: TypeWorkshop, want: "gold"},
		{mtype: TypeMentor, want: "purple"},
		{mtype: TypeCoordinator, want: "orange"},
		{mtype: "bonding", want: "grey"},
	}
	for _, tt := range tests {
		t.Run(tt.mtype, func(t *testing.T) {
			m := Meeting{Type: tt.mtype}
			if got := m.Color(); got != tt.want {
				t.Errorf("Color() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMeeting_PresentationEmbedURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "google slides url",
			url:  "https://docs.google.com/presentation/d/1frW3CUZzT9Nvb9WkWi4yA0SNY8KgTB5Mu27rC1hLx8o/edit#slide=id.p",
			want: "https://docs.google.com/presentation/d/1frW3CUZzT9Nvb9WkWi4yA0SNY8KgTB5Mu27rC1hLx8o/embed",
		},
		{
			name: "non google url",
			url:  "https://slides.com/deck/12345",
			want: "",
		},
		{
			name: "google slides url without id",
			url:  "https://docs.google.com/presentation/d/short/edit",
			want: "",
		},
		{
			name: "no url",
			url:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Meeting{PresentationURL: tt.url}
			if got := m.PresentationEmbedURL(); got != tt.want {
				t.Errorf("PresentationEmbedURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
