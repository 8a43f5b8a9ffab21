package engine

// MoveStrategy produces the acceleration a car applies in its next turn.
type MoveStrategy interface {
	NextMove(car *Car) Direction
}

// Car is a single racer. Its state only changes through the engine.
type Car struct {
	id       rune
	position Vector
	velocity Vector
	status   CarStatus
	strategy MoveStrategy
}

// NewCar creates an active car.
func NewCar(id rune, position, velocity Vector) *Car {
	return &Car{
		id:       id,
		position: position,
		velocity: velocity,
		status:   StatusActive,
	}
}

func (c *Car) ID() rune               { return c.id }
func (c *Car) Position() Vector       { return c.position }
func (c *Car) Velocity() Vector       { return c.velocity }
func (c *Car) Status() CarStatus      { return c.status }
func (c *Car) Strategy() MoveStrategy { return c.strategy }

// NextPosition is where the car ends up if nothing stops it this turn.
func (c *Car) NextPosition() Vector {
	return c.position.Add(c.velocity)
}

func (c *Car) IsCrashed() bool {
	return c.status == StatusCrashed
}

func (c *Car) IsPenalized() bool {
	return c.status == StatusPenalized
}

func (c *Car) accelerate(d Direction) {
	c.velocity = c.velocity.Add(d.Vector())
}

func (c *Car) moveTo(p Vector) {
	c.position = p
}

func (c *Car) crash(at Vector) {
	c.position = at
	c.status = StatusCrashed
}

func (c *Car) penalize() {
	if c.status == StatusActive {
		c.status = StatusPenalized
	}
}

func (c *Car) clearPenalty() {
	if c.status == StatusPenalized {
		c.status = StatusActive
	}
}

func (c *Car) state(index int) CarState {
	return CarState{
		Index:    index,
		ID:       string(c.id),
		Position: c.position,
		Velocity: c.velocity,
		Status:   c.status,
	}
}
